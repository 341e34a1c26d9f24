package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trivia-events-service/internal/domain"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule re-resolves the active event every minute so week boundaries are
// picked up without waiting for cache expiry.
const DefaultSchedule = "@every 1m"

// Refresher drops cached resolutions and resolves the active event again.
type Refresher interface {
	Refresh(ctx context.Context) (domain.WeeklyEvent, error)
}

// Rollover periodically refreshes the active event and logs week changes.
type Rollover struct {
	cron      *cron.Cron
	refresher Refresher
	logger    *zap.Logger

	mu      sync.Mutex
	weekKey string
}

func NewRollover(schedule string, refresher Refresher, logger *zap.Logger) (*Rollover, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	r := &Rollover{
		cron:      cron.New(),
		refresher: refresher,
		logger:    logger,
	}
	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		r.tick(ctx)
	}); err != nil {
		return nil, fmt.Errorf("schedule rollover %q: %w", schedule, err)
	}
	return r, nil
}

// Start runs the schedule in the background.
func (r *Rollover) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running tick.
func (r *Rollover) Stop() {
	<-r.cron.Stop().Done()
}

// tick reports whether the active week changed since the previous tick.
func (r *Rollover) tick(ctx context.Context) bool {
	event, err := r.refresher.Refresh(ctx)
	weekKey := ""
	switch {
	case errors.Is(err, domain.ErrNoActiveEvent):
	case err != nil:
		r.logger.Warn("refresh active event", zap.Error(err))
		return false
	default:
		weekKey = event.WeekKey
	}

	r.mu.Lock()
	previous := r.weekKey
	r.weekKey = weekKey
	r.mu.Unlock()

	if previous == weekKey {
		return false
	}
	r.logger.Info("weekly event rollover",
		zap.String("previous_week", previous),
		zap.String("week", weekKey))
	return true
}
