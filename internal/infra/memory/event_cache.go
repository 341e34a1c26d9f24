package memory

import (
	"context"
	"time"

	"trivia-events-service/internal/app"
	"trivia-events-service/internal/domain"
)

const activeEventKey = "active"

// EventCache keeps the resolved active event in process memory. An entry never outlives
// the end of the event it holds.
type EventCache struct {
	source app.EventRepository
	cache  *ttlCache[domain.WeeklyEvent]
}

func NewEventCache(source app.EventRepository, ttl time.Duration) *EventCache {
	cache := newTTLCache[domain.WeeklyEvent](ttl)
	cache.bound = func(e domain.WeeklyEvent) time.Time { return e.EndsAt }
	return &EventCache{source: source, cache: cache}
}

func (c *EventCache) ActiveEvent(ctx context.Context, now time.Time) (domain.WeeklyEvent, error) {
	event, err := c.cache.get(ctx, activeEventKey, func(ctx context.Context) (domain.WeeklyEvent, error) {
		return c.source.ActiveEvent(ctx, now)
	})
	if err != nil {
		return domain.WeeklyEvent{}, err
	}
	if !event.ActiveAt(now) {
		c.cache.delete(activeEventKey)
		return c.source.ActiveEvent(ctx, now)
	}
	return event, nil
}

// Invalidate drops the cached resolution.
func (c *EventCache) Invalidate(context.Context) error {
	c.cache.delete(activeEventKey)
	return nil
}
