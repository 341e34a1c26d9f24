package app

import (
	"context"
	"time"

	"trivia-events-service/internal/domain"
)

// EventRepository resolves weekly events (Mongo, memory, with or without a cache in front).
type EventRepository interface {
	// ActiveEvent returns the event live at now or domain.ErrNoActiveEvent.
	// Overlapping active events resolve to the lowest weekKey.
	ActiveEvent(ctx context.Context, now time.Time) (domain.WeeklyEvent, error)
}

// EventInvalidator is implemented by caching repositories.
type EventInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ProgressStore persists per-user event progress. Every mutation is one atomic conditional
// update so concurrent requests for the same (user, event) cannot double-claim a milestone.
type ProgressStore interface {
	// GetOrCreate loads the document, creating it with node 0 unlocked if absent.
	GetOrCreate(ctx context.Context, key domain.ProgressKey, now time.Time) (domain.Progress, error)
	Get(ctx context.Context, key domain.ProgressKey) (domain.Progress, error)
	// RecordAttempt bumps attempts and the high-water counters of the node, creating the entry if needed.
	RecordAttempt(ctx context.Context, key domain.ProgressKey, index int, result domain.NodeResult, now time.Time) error
	// MarkCompleted sets completedAt only if unset and reports whether this call set it.
	// When it does, a non-zero grant is appended to the pending grants in the same update.
	MarkCompleted(ctx context.Context, key domain.ProgressKey, index int, grant domain.RewardGrant, now time.Time) (bool, error)
	// Advance moves currentNodeIndex from -> to (only if it is still from) and unlocks node to.
	Advance(ctx context.Context, key domain.ProgressKey, from, to int, now time.Time) error
	// ClaimFullCompletion flips the one-shot flag if unset and records the grant with it.
	ClaimFullCompletion(ctx context.Context, key domain.ProgressKey, grant domain.RewardGrant, now time.Time) (bool, error)
	// ResolveGrant drops a pending grant once the wallet has applied it.
	ResolveGrant(ctx context.Context, key domain.ProgressKey, grantID string) error
}

// WalletStore applies grants to user balances, at most once per grant ID.
type WalletStore interface {
	Apply(ctx context.Context, userID string, grant domain.RewardGrant) (bool, error)
	Balance(ctx context.Context, userID string) (domain.Balance, error)
}

// VoteStore keeps one vote row per (user, event, node).
type VoteStore interface {
	Upsert(ctx context.Context, vote domain.Vote) error
	Get(ctx context.Context, userID, eventID string, nodeIndex int) (domain.Vote, bool, error)
	// Tally counts votes per option ID for one node.
	Tally(ctx context.Context, eventID string, nodeIndex int) (map[string]int, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Publisher emits domain events to other services and instances.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Recorder receives counters for metrics.
type Recorder interface {
	NodeCompleted(nodeType domain.NodeType, first bool)
	RewardGranted(grant domain.RewardGrant)
	VoteSubmitted(eventID string, nodeIndex int)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }

type nopRecorder struct{}

func (nopRecorder) NodeCompleted(domain.NodeType, bool) {}
func (nopRecorder) RewardGranted(domain.RewardGrant)    {}
func (nopRecorder) VoteSubmitted(string, int)           {}
