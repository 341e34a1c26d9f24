package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// WeeklyEvent is a week-long linear path of nodes.
type WeeklyEvent struct {
	ID                   string    `json:"id"`
	WeekKey              string    `json:"weekKey" validate:"required"`
	Title                string    `json:"title,omitempty"`
	Theme                string    `json:"theme,omitempty"`
	StartsAt             time.Time `json:"startsAt" validate:"required"`
	EndsAt               time.Time `json:"endsAt" validate:"required,gtfield=StartsAt"`
	IsActive             bool      `json:"isActive"`
	Nodes                []Node    `json:"nodes" validate:"required,min=1,dive"`
	FullCompletionReward Reward    `json:"fullCompletionReward"`
}

// ActiveAt reports whether the event is live at now. The window is half-open: [StartsAt, EndsAt).
func (e WeeklyEvent) ActiveAt(now time.Time) bool {
	return e.IsActive && !now.Before(e.StartsAt) && now.Before(e.EndsAt)
}

// Node returns the node at index.
func (e WeeklyEvent) Node(index int) (Node, error) {
	if index < 0 || index >= len(e.Nodes) {
		return Node{}, ErrInvalidNodeIndex
	}
	return e.Nodes[index], nil
}

// Validate checks field constraints and the node invariants: indexes match positions,
// types are known and every config variant matches its type.
func (e WeeklyEvent) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("validate weekly event %q: %w", e.WeekKey, err)
	}
	for i, n := range e.Nodes {
		if n.Index != i {
			return fmt.Errorf("%w: node at position %d has index %d", ErrInvalidNodeConfig, i, n.Index)
		}
		if !n.Type.Valid() {
			return fmt.Errorf("%w: node %d has unknown type %q", ErrInvalidNodeConfig, i, n.Type)
		}
		if n.Config == nil || !n.Config.accepts(n.Type) {
			return fmt.Errorf("%w: node %d config does not match type %s", ErrInvalidNodeConfig, i, n.Type)
		}
		if err := validate.Struct(n.Config); err != nil {
			return fmt.Errorf("%w: node %d: %v", ErrInvalidNodeConfig, i, err)
		}
	}
	return nil
}

// SelectActive picks the event live at now. Overlapping active events resolve to the
// lowest weekKey.
func SelectActive(events []WeeklyEvent, now time.Time) (WeeklyEvent, bool) {
	live := make([]WeeklyEvent, 0, 1)
	for _, e := range events {
		if e.ActiveAt(now) {
			live = append(live, e)
		}
	}
	if len(live) == 0 {
		return WeeklyEvent{}, false
	}
	sort.Slice(live, func(i, j int) bool { return live[i].WeekKey < live[j].WeekKey })
	return live[0], true
}
