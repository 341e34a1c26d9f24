package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-events-service/internal/domain"
)

func TestEventStoreTieBreaksOnLowestWeekKey(t *testing.T) {
	now := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	store := NewEventStore(
		weeklyEvent("2026-W02", now.Add(-time.Hour), now.Add(time.Hour)),
		weeklyEvent("2026-W01", now.Add(-48*time.Hour), now.Add(48*time.Hour)),
	)

	event, err := store.ActiveEvent(context.Background(), now)
	if err != nil {
		t.Fatalf("active event: %v", err)
	}
	if event.WeekKey != "2026-W01" {
		t.Fatalf("expected lowest weekKey to win, got %s", event.WeekKey)
	}
}

func TestEventStoreWindowIsHalfOpen(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)
	store := NewEventStore(weeklyEvent("2026-W01", start, end))

	if _, err := store.ActiveEvent(context.Background(), start); err != nil {
		t.Fatalf("expected event active at its start: %v", err)
	}
	if _, err := store.ActiveEvent(context.Background(), end); !errors.Is(err, domain.ErrNoActiveEvent) {
		t.Fatalf("expected no event at its end, got %v", err)
	}
}

func TestEventCacheHitsSourceOnce(t *testing.T) {
	now := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	source := &countingEvents{EventStore: NewEventStore(weeklyEvent("2026-W01", now.Add(-time.Hour), now.Add(time.Hour)))}
	cache := NewEventCache(source, time.Minute)
	cache.cache.clock = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, err := cache.ActiveEvent(context.Background(), now); err != nil {
			t.Fatalf("active event: %v", err)
		}
	}
	if source.calls != 1 {
		t.Fatalf("expected one source call, got %d", source.calls)
	}

	if err := cache.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = cache.ActiveEvent(context.Background(), now)
	if source.calls != 2 {
		t.Fatalf("expected reload after invalidate, got %d", source.calls)
	}
}

func TestEventCacheDropsEndedEvent(t *testing.T) {
	now := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	source := &countingEvents{EventStore: NewEventStore(weeklyEvent("2026-W01", now.Add(-time.Hour), now.Add(time.Minute)))}
	cache := NewEventCache(source, time.Hour)
	cache.cache.clock = func() time.Time { return now }

	if _, err := cache.ActiveEvent(context.Background(), now); err != nil {
		t.Fatalf("active event: %v", err)
	}
	if _, err := cache.ActiveEvent(context.Background(), now.Add(2*time.Minute)); !errors.Is(err, domain.ErrNoActiveEvent) {
		t.Fatalf("expected ended event to be dropped, got %v", err)
	}
}

type countingEvents struct {
	*EventStore
	calls int
}

func (c *countingEvents) ActiveEvent(ctx context.Context, now time.Time) (domain.WeeklyEvent, error) {
	c.calls++
	return c.EventStore.ActiveEvent(ctx, now)
}

func weeklyEvent(weekKey string, start, end time.Time) domain.WeeklyEvent {
	return domain.WeeklyEvent{
		WeekKey:  weekKey,
		StartsAt: start,
		EndsAt:   end,
		IsActive: true,
		Nodes: []domain.Node{
			{Index: 0, Type: domain.NodeMiniQuiz, Config: domain.QuizConfig{QuizIDs: []string{"quiz-1"}}},
		},
	}
}
