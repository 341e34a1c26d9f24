package domain

import "errors"

var (
	// ErrNoActiveEvent is returned when no weekly event covers the current instant.
	ErrNoActiveEvent = errors.New("no active weekly event")
	// ErrEventNotFound is returned when an event lookup by key misses.
	ErrEventNotFound = errors.New("weekly event not found")
	// ErrInvalidNodeIndex is returned for node indexes outside the event's node list.
	ErrInvalidNodeIndex = errors.New("invalid node index")
	// ErrNodeLocked is returned when a user tries to play past their current node.
	ErrNodeLocked = errors.New("node not yet unlocked")
	// ErrProgressNotFound is returned when a progress document is missing.
	ErrProgressNotFound = errors.New("event progress not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNotVoteNode is returned when a vote targets a non-vote node.
	ErrNotVoteNode = errors.New("node is not a vote node")
	// ErrMissingOption is returned when a vote carries no option.
	ErrMissingOption = errors.New("vote option is required")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrInvalidNodeConfig is returned when a node config does not match its type.
	ErrInvalidNodeConfig = errors.New("invalid node config")
	// ErrUserNotFound is returned when a reward targets an unknown user.
	ErrUserNotFound = errors.New("user not found")
)
