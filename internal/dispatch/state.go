package dispatch

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of one chunk within a run.
type State int

const (
	Pending State = iota
	InFlight
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case InFlight:
		return "in-flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}

// ErrInvalidTransition is returned for a transition the chunk lifecycle
// does not allow.
var ErrInvalidTransition = errors.New("invalid state transition")

// transition moves from to next: Pending -> InFlight -> {Succeeded, Failed}.
func transition(from, next State) (State, error) {
	switch {
	case from == Pending && next == InFlight,
		from == InFlight && next.Terminal():
		return next, nil
	default:
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next)
	}
}
