package domain

import (
	"sort"
	"time"
)

// NodeStatus is a node's state from one user's point of view.
type NodeStatus string

const (
	StatusLocked    NodeStatus = "locked"
	StatusUnlocked  NodeStatus = "unlocked"
	StatusCompleted NodeStatus = "completed"
)

// ProgressKey identifies a progress document. One exists per (user, event).
type ProgressKey struct {
	UserID  string
	EventID string
}

// NodeProgress tracks one touched node. CompletedAt is set once, on first completion.
type NodeProgress struct {
	Index             int        `json:"index"`
	UnlockedAt        *time.Time `json:"unlockedAt,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	Attempts          int        `json:"attempts"`
	QuestionsCorrect  int        `json:"questionsCorrect"`
	BestScore         int        `json:"bestScore"`
	TrophiesCollected int        `json:"trophiesCollected"`
	LastAttemptAt     *time.Time `json:"lastAttemptAt,omitempty"`
}

// Progress is a user's state in one weekly event.
type Progress struct {
	ID                          string         `json:"id,omitempty"`
	UserID                      string         `json:"userId"`
	EventID                     string         `json:"eventId"`
	CurrentNodeIndex            int            `json:"currentNodeIndex"`
	NodeProgress                []NodeProgress `json:"nodeProgress"`
	FullCompletionRewardClaimed bool           `json:"fullCompletionRewardClaimed"`
	PendingGrants               []RewardGrant  `json:"-"`
	CreatedAt                   time.Time      `json:"createdAt"`
	UpdatedAt                   time.Time      `json:"updatedAt"`
}

// Key returns the document's identity.
func (p Progress) Key() ProgressKey {
	return ProgressKey{UserID: p.UserID, EventID: p.EventID}
}

// Node returns the entry for index, if the user has touched that node.
func (p Progress) Node(index int) (NodeProgress, bool) {
	for _, np := range p.NodeProgress {
		if np.Index == index {
			return np, true
		}
	}
	return NodeProgress{}, false
}

// Status derives a node's state: no entry is locked, an entry without CompletedAt is unlocked.
func (p Progress) Status(index int) NodeStatus {
	np, ok := p.Node(index)
	switch {
	case !ok || np.UnlockedAt == nil && np.CompletedAt == nil:
		return StatusLocked
	case np.CompletedAt != nil:
		return StatusCompleted
	default:
		return StatusUnlocked
	}
}

// AllCompleted reports whether nodes 0..total-1 all carry a completion time.
func (p Progress) AllCompleted(total int) bool {
	if total <= 0 {
		return false
	}
	for i := 0; i < total; i++ {
		if p.Status(i) != StatusCompleted {
			return false
		}
	}
	return true
}

// SortNodes orders NodeProgress by index.
func (p *Progress) SortNodes() {
	sort.Slice(p.NodeProgress, func(i, j int) bool {
		return p.NodeProgress[i].Index < p.NodeProgress[j].Index
	})
}

// NodeResult is the client's report for one play of a node. Score is the legacy payload.
type NodeResult struct {
	QuestionsCorrect *int `json:"questionsCorrect,omitempty"`
	Score            *int `json:"score,omitempty"`
}

// Values returns the clamped counters; absent fields are zero.
func (r NodeResult) Values() (questionsCorrect, score int) {
	if r.QuestionsCorrect != nil {
		questionsCorrect = max(*r.QuestionsCorrect, 0)
	}
	if r.Score != nil {
		score = max(*r.Score, 0)
	}
	return questionsCorrect, score
}
