package memory

import (
	"context"
	"testing"
	"time"

	"trivia-events-service/internal/domain"
)

func TestProgressStoreCreatesWithFirstNodeUnlocked(t *testing.T) {
	store := NewProgressStore()
	key := domain.ProgressKey{UserID: "u1", EventID: "e1"}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	p, err := store.GetOrCreate(context.Background(), key, now)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if p.CurrentNodeIndex != 0 || p.Status(0) != domain.StatusUnlocked || p.Status(1) != domain.StatusLocked {
		t.Fatalf("unexpected initial progress %+v", p)
	}

	again, _ := store.GetOrCreate(context.Background(), key, now.Add(time.Hour))
	if again.ID != p.ID {
		t.Fatalf("expected the same document, got %s and %s", p.ID, again.ID)
	}
}

func TestProgressStoreMarkCompletedOnce(t *testing.T) {
	store := NewProgressStore()
	key := domain.ProgressKey{UserID: "u1", EventID: "e1"}
	now := time.Now()
	_, _ = store.GetOrCreate(context.Background(), key, now)
	grant := domain.NodeCompletionGrant("e1", 0, domain.Reward{Trophies: 10})

	first, err := store.MarkCompleted(context.Background(), key, 0, grant, now)
	if err != nil || !first {
		t.Fatalf("expected first completion, got %v %v", first, err)
	}
	first, _ = store.MarkCompleted(context.Background(), key, 0, grant, now)
	if first {
		t.Fatalf("expected second completion to be ignored")
	}

	p, _ := store.Get(context.Background(), key)
	if len(p.PendingGrants) != 1 {
		t.Fatalf("expected one pending grant, got %d", len(p.PendingGrants))
	}
	if err := store.ResolveGrant(context.Background(), key, grant.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	p, _ = store.Get(context.Background(), key)
	if len(p.PendingGrants) != 0 {
		t.Fatalf("expected pending grants cleared, got %d", len(p.PendingGrants))
	}
}

func TestProgressStoreHighWaterMarks(t *testing.T) {
	store := NewProgressStore()
	key := domain.ProgressKey{UserID: "u1", EventID: "e1"}
	now := time.Now()
	_, _ = store.GetOrCreate(context.Background(), key, now)

	for _, n := range []int{4, 7, 2} {
		n := n
		if err := store.RecordAttempt(context.Background(), key, 0, domain.NodeResult{QuestionsCorrect: &n}, now); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	p, _ := store.Get(context.Background(), key)
	np, _ := p.Node(0)
	if np.Attempts != 3 || np.QuestionsCorrect != 7 {
		t.Fatalf("expected 3 attempts and 7 correct, got %+v", np)
	}
}

func TestProgressStoreAdvanceIsConditional(t *testing.T) {
	store := NewProgressStore()
	key := domain.ProgressKey{UserID: "u1", EventID: "e1"}
	now := time.Now()
	_, _ = store.GetOrCreate(context.Background(), key, now)

	_ = store.Advance(context.Background(), key, 0, 1, now)
	_ = store.Advance(context.Background(), key, 0, 1, now)
	p, _ := store.Get(context.Background(), key)
	if p.CurrentNodeIndex != 1 || p.Status(1) != domain.StatusUnlocked {
		t.Fatalf("expected node 1 current and unlocked, got %+v", p)
	}
}
