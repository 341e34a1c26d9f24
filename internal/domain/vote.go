package domain

import "time"

// Vote is a user's latest choice on a vote node.
type Vote struct {
	UserID    string    `json:"userId"`
	EventID   string    `json:"eventId"`
	NodeIndex int       `json:"nodeIndex"`
	OptionID  string    `json:"optionId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OptionStat is the share of votes one option received.
type OptionStat struct {
	OptionID   string `json:"optionId"`
	Text       string `json:"text"`
	Emoji      string `json:"emoji,omitempty"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// VoteStats is recomputed from the raw vote rows on every read.
type VoteStats struct {
	EventID    string       `json:"eventId"`
	NodeIndex  int          `json:"nodeIndex"`
	Options    []OptionStat `json:"options"`
	TotalVotes int          `json:"totalVotes"`
}
