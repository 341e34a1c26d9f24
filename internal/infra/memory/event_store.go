package memory

import (
	"context"
	"sync"
	"time"

	"trivia-events-service/internal/domain"
)

// EventStore is an in-memory weekly event repository (useful for tests/demos).
type EventStore struct {
	mu     sync.RWMutex
	events map[string]domain.WeeklyEvent // weekKey -> event
}

func NewEventStore(events ...domain.WeeklyEvent) *EventStore {
	s := &EventStore{events: make(map[string]domain.WeeklyEvent)}
	for _, e := range events {
		_ = s.Upsert(context.Background(), e)
	}
	return s
}

// Upsert stores the event under its weekKey; an empty ID defaults to the weekKey.
func (s *EventStore) Upsert(_ context.Context, event domain.WeeklyEvent) error {
	if event.ID == "" {
		event.ID = event.WeekKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.events[event.WeekKey]; ok {
		event.ID = existing.ID
	}
	s.events[event.WeekKey] = event
	return nil
}

func (s *EventStore) ByWeekKey(_ context.Context, weekKey string) (domain.WeeklyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.events[weekKey]; ok {
		return e, nil
	}
	return domain.WeeklyEvent{}, domain.ErrEventNotFound
}

func (s *EventStore) ActiveEvent(_ context.Context, now time.Time) (domain.WeeklyEvent, error) {
	s.mu.RLock()
	all := make([]domain.WeeklyEvent, 0, len(s.events))
	for _, e := range s.events {
		all = append(all, e)
	}
	s.mu.RUnlock()

	if e, ok := domain.SelectActive(all, now); ok {
		return e, nil
	}
	return domain.WeeklyEvent{}, domain.ErrNoActiveEvent
}
