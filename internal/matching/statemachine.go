package matching

import "fmt"

// Event names a lifecycle trigger on a match request.
type Event string

const (
	EventJoin   Event = "JOIN"    // first joiner arrives: OPEN -> PENDING
	EventAccept Event = "ACCEPT"  // creator accepts one joiner: PENDING -> MATCHED
	EventReopen Event = "REOPEN"  // last joiner removed: PENDING -> OPEN
	EventCancel Event = "CANCEL"  // creator cancels: OPEN|PENDING -> CANCELLED
	EventExpire Event = "EXPIRE"  // sweep: OPEN|PENDING -> EXPIRED
)

// transitions is the single source of truth for the request lifecycle.
// Anything not listed here is an invalid transition.
var transitions = map[Status]map[Event]Status{
	StatusOpen: {
		EventJoin:   StatusPending,
		EventCancel: StatusCancelled,
		EventExpire: StatusExpired,
	},
	StatusPending: {
		EventAccept: StatusMatched,
		EventReopen: StatusOpen,
		EventCancel: StatusCancelled,
		EventExpire: StatusExpired,
	},
}

// Next returns the status reached by applying event to from. It fails with
// ErrInvalidTransition for terminal states and unlisted pairs, leaving the
// caller's state untouched.
func Next(from Status, event Event) (Status, error) {
	if events, ok := transitions[from]; ok {
		if to, ok := events[event]; ok {
			return to, nil
		}
	}
	return "", fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, from)
}

// CanTransition reports whether event is legal from the given status.
func CanTransition(from Status, event Event) bool {
	_, err := Next(from, event)
	return err == nil
}
