package domain

import "strconv"

// Reward is a currency payout. Trophies are stored as the user's stars.
type Reward struct {
	Trophies int `json:"trophies,omitempty" bson:"trophies,omitempty" yaml:"trophies,omitempty"`
	Gems     int `json:"gems,omitempty" bson:"gems,omitempty" yaml:"gems,omitempty"`
}

// Clamp returns the reward with negative amounts replaced by zero.
func (r Reward) Clamp() Reward {
	return Reward{Trophies: max(r.Trophies, 0), Gems: max(r.Gems, 0)}
}

// IsZero reports whether the clamped reward pays nothing.
func (r Reward) IsZero() bool {
	c := r.Clamp()
	return c.Trophies == 0 && c.Gems == 0
}

// Balance holds a user's currencies.
type Balance struct {
	Stars int `json:"stars" bson:"stars"`
	Gems  int `json:"gems" bson:"gems"`
}

// Grant adds the clamped reward to b and reports whether anything changed.
// Callers persist b; idempotence is the caller's responsibility.
func Grant(b *Balance, r Reward) bool {
	if b == nil {
		return false
	}
	c := r.Clamp()
	if c.Trophies == 0 && c.Gems == 0 {
		return false
	}
	b.Stars += c.Trophies
	b.Gems += c.Gems
	return true
}

// GrantType tags the milestone a grant pays for.
type GrantType string

const (
	GrantNodeCompletion GrantType = "node_completion"
	GrantFullCompletion GrantType = "full_completion"
)

// RewardGrant is a milestone payout, keyed by ID so it can be applied at most once.
type RewardGrant struct {
	ID        string    `json:"-" bson:"id"`
	Type      GrantType `json:"type" bson:"type"`
	NodeIndex *int      `json:"nodeIndex,omitempty" bson:"nodeIndex,omitempty"`
	Reward    Reward    `json:"reward" bson:"reward"`
}

// NodeCompletionGrant builds the grant for finishing a node for the first time.
func NodeCompletionGrant(eventID string, index int, r Reward) RewardGrant {
	i := index
	return RewardGrant{
		ID:        eventID + ":node:" + strconv.Itoa(index),
		Type:      GrantNodeCompletion,
		NodeIndex: &i,
		Reward:    r.Clamp(),
	}
}

// FullCompletionGrant builds the one-shot grant for finishing every node.
func FullCompletionGrant(eventID string, r Reward) RewardGrant {
	return RewardGrant{
		ID:     eventID + ":full",
		Type:   GrantFullCompletion,
		Reward: r.Clamp(),
	}
}
