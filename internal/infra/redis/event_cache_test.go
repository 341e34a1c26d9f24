package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-events-service/internal/domain"
	"trivia-events-service/internal/infra/memory"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestEventCacheSharesResolution(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	now := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	source := &countingEvents{EventStore: memory.NewEventStore(weeklyEvent(now.Add(-time.Hour), now.Add(time.Hour)))}

	// Two instances sharing one Redis resolve through the source once.
	first := NewEventCache(newClient(mr), source, time.Minute)
	second := NewEventCache(newClient(mr), source, time.Minute)

	event, err := first.ActiveEvent(context.Background(), now)
	if err != nil {
		t.Fatalf("active event: %v", err)
	}
	cached, err := second.ActiveEvent(context.Background(), now)
	if err != nil {
		t.Fatalf("cached active event: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected one source call, got %d", source.calls)
	}
	if cached.ID != event.ID || len(cached.Nodes) != 1 {
		t.Fatalf("unexpected cached event %+v", cached)
	}
	cfg, ok := cached.Nodes[0].Config.(domain.QuizConfig)
	if !ok || cfg.QuizIDs[0] != "quiz-1" {
		t.Fatalf("expected node config to survive the cache, got %#v", cached.Nodes[0].Config)
	}
}

func TestEventCacheTTLBoundedByEventEnd(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	now := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	source := memory.NewEventStore(weeklyEvent(now.Add(-time.Hour), now.Add(30*time.Second)))
	cache := NewEventCache(newClient(mr), source, time.Hour)

	if _, err := cache.ActiveEvent(context.Background(), now); err != nil {
		t.Fatalf("active event: %v", err)
	}
	if ttl := mr.TTL(activeEventKey); ttl != 30*time.Second {
		t.Fatalf("expected ttl capped at event end, got %v", ttl)
	}
}

func TestEventCacheInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	now := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	source := &countingEvents{EventStore: memory.NewEventStore(weeklyEvent(now.Add(-time.Hour), now.Add(time.Hour)))}
	cache := NewEventCache(newClient(mr), source, time.Minute)

	_, _ = cache.ActiveEvent(context.Background(), now)
	if err := cache.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists(activeEventKey) {
		t.Fatalf("expected key removed")
	}
	_, _ = cache.ActiveEvent(context.Background(), now)
	if source.calls != 2 {
		t.Fatalf("expected reload after invalidate, got %d", source.calls)
	}
}

func TestEventCacheNoActiveEventNotCached(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewEventCache(newClient(mr), memory.NewEventStore(), time.Minute)
	if _, err := cache.ActiveEvent(context.Background(), time.Now()); !errors.Is(err, domain.ErrNoActiveEvent) {
		t.Fatalf("expected ErrNoActiveEvent, got %v", err)
	}
	if mr.Exists(activeEventKey) {
		t.Fatalf("expected nothing cached")
	}
}

type countingEvents struct {
	*memory.EventStore
	calls int
}

func (c *countingEvents) ActiveEvent(ctx context.Context, now time.Time) (domain.WeeklyEvent, error) {
	c.calls++
	return c.EventStore.ActiveEvent(ctx, now)
}

func weeklyEvent(start, end time.Time) domain.WeeklyEvent {
	return domain.WeeklyEvent{
		WeekKey:  "2026-W01",
		StartsAt: start,
		EndsAt:   end,
		IsActive: true,
		Nodes: []domain.Node{
			{Index: 0, Type: domain.NodeMiniQuiz, Config: domain.QuizConfig{QuizIDs: []string{"quiz-1"}}},
		},
	}
}
