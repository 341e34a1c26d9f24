package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trivia-events-service/internal/app"
	"trivia-events-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const activeEventKey = "weekly_event:active"

// EventCache shares the resolved active event between instances. The key expires no
// later than the event's end, so a finished week is never served from cache.
type EventCache struct {
	client *redis.Client
	source app.EventRepository
	ttl    time.Duration
	sf     singleflight.Group
}

func NewEventCache(client *redis.Client, source app.EventRepository, ttl time.Duration) *EventCache {
	return &EventCache{client: client, source: source, ttl: ttl}
}

func (c *EventCache) ActiveEvent(ctx context.Context, now time.Time) (domain.WeeklyEvent, error) {
	if event, ok := c.cached(ctx); ok {
		if event.ActiveAt(now) {
			return event, nil
		}
		_ = c.client.Del(ctx, activeEventKey).Err()
	}

	result, err, _ := c.sf.Do(activeEventKey, func() (interface{}, error) {
		event, err := c.source.ActiveEvent(ctx, now)
		if err != nil {
			return domain.WeeklyEvent{}, err
		}
		ttl := c.ttl
		if until := event.EndsAt.Sub(now); ttl <= 0 || until < ttl {
			ttl = until
		}
		if data, err := json.Marshal(event); err == nil && ttl > 0 {
			_ = c.client.Set(ctx, activeEventKey, data, ttl).Err()
		}
		return event, nil
	})
	if err != nil {
		return domain.WeeklyEvent{}, err
	}
	return result.(domain.WeeklyEvent), nil
}

// Invalidate drops the shared resolution for every instance.
func (c *EventCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, activeEventKey).Err(); err != nil {
		return fmt.Errorf("invalidate active event: %w", err)
	}
	return nil
}

func (c *EventCache) cached(ctx context.Context) (domain.WeeklyEvent, bool) {
	data, err := c.client.Get(ctx, activeEventKey).Bytes()
	if err != nil {
		return domain.WeeklyEvent{}, false
	}
	var event domain.WeeklyEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.WeeklyEvent{}, false
	}
	return event, true
}
