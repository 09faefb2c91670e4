package lifecycle

import (
	"errors"
	"fmt"
)

// Policy rejections. They are deterministic client errors: the caller must
// change the request (or the actor) rather than retry.
var (
	// ErrInvalidTransition is returned for skipped, backward or unsupported
	// transitions, and for transitions missing their mandatory fields.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnauthorized is returned when the actor's role or identity does not
	// own the requested change.
	ErrUnauthorized = errors.New("not allowed for this actor")

	// ErrTerminalState is returned for any change to a completed or archived request.
	ErrTerminalState = errors.New("request is in a terminal state")

	// ErrImmutableAfterDispatch is returned when descriptive fields are edited
	// after the request left the "new" state.
	ErrImmutableAfterDispatch = errors.New("request details are immutable after dispatch")
)

// Error carries one of the sentinel kinds above together with a message
// describing the concrete rejection. errors.Is(err, ErrX) matches on Kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Kind }

func reject(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
