package app

import (
	"time"

	"trivia-events-service/internal/domain"
)

const (
	SubjectNodeCompleted = "weekly_event.node_completed"
	SubjectRewardGranted = "weekly_event.reward_granted"
	SubjectVoteSubmitted = "weekly_event.vote_submitted"
)

// NodeCompletedEvent is published after every successful complete call.
type NodeCompletedEvent struct {
	Origin           string    `json:"origin"`
	UserID           string    `json:"userId"`
	EventID          string    `json:"eventId"`
	WeekKey          string    `json:"weekKey"`
	NodeIndex        int       `json:"nodeIndex"`
	FirstCompletion  bool      `json:"firstCompletion"`
	CurrentNodeIndex int       `json:"currentNodeIndex"`
	At               time.Time `json:"at"`
}

// RewardGrantedEvent is published once a grant reached the user's balance.
type RewardGrantedEvent struct {
	Origin  string             `json:"origin"`
	UserID  string             `json:"userId"`
	EventID string             `json:"eventId"`
	GrantID string             `json:"grantId"`
	Grant   domain.RewardGrant `json:"grant"`
	At      time.Time          `json:"at"`
}

// VoteSubmittedEvent lets other instances refresh live vote stats.
type VoteSubmittedEvent struct {
	Origin    string    `json:"origin"`
	UserID    string    `json:"userId"`
	EventID   string    `json:"eventId"`
	NodeIndex int       `json:"nodeIndex"`
	OptionID  string    `json:"optionId"`
	At        time.Time `json:"at"`
}
