package storex

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAction is returned when dispatching a name the store was not built with.
	ErrUnknownAction = errors.New("storex: unknown action")

	// ErrDepthExceeded is returned when nested dispatches exceed the store's maximum depth.
	ErrDepthExceeded = errors.New("storex: dispatch depth exceeded")
)

// ActionError wraps a failure returned by an action creator.
type ActionError struct {
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("storex: action %q: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
