package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error so handlers can map it to a response
// without inspecting message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindAuthorization
	KindConflict
	KindInvalidState
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindExternal:
		return "external_service"
	default:
		return "unknown"
	}
}

// Error carries enough context (entity, id, current state, attempted
// operation) to render an actionable message to the caller.
type Error struct {
	Kind   Kind
	Entity string
	ID     string
	State  string
	Op     string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Entity != "" && e.ID != "" && e.State != "":
		return fmt.Sprintf("%s %s (status %s): %s", e.Entity, e.ID, e.State, msg)
	case e.Entity != "" && e.ID != "":
		return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, msg)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s", e.Entity, msg)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Msg: "not found"}
}

func Authorization(msg string) *Error {
	return &Error{Kind: KindAuthorization, Msg: msg}
}

func Conflict(entity, id, msg string) *Error {
	return &Error{Kind: KindConflict, Entity: entity, ID: id, Msg: msg}
}

// InvalidState reports an operation that is illegal from the entity's
// current status.
func InvalidState(entity, id, state, op string) *Error {
	return &Error{
		Kind:   KindInvalidState,
		Entity: entity,
		ID:     id,
		State:  state,
		Op:     op,
		Msg:    fmt.Sprintf("cannot %s", op),
	}
}

func External(op string, err error) *Error {
	return &Error{Kind: KindExternal, Op: op, Msg: op + " failed", Err: err}
}
