package engine

import (
	"errors"
	"fmt"

	"github.com/okian/planner/internal/adapters/http/client"
)

// Kind classifies a failed operation.
type Kind string

// Failure kinds.
const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindServer     Kind = "server"
	KindNetwork    Kind = "network"
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrServer     = errors.New("server error")
	ErrNetwork    = errors.New("network failure")
)

// Error is returned by every failed engine operation. Local state is
// unchanged when an Error is returned, except where an operation says
// otherwise.
type Error struct {
	Op      string
	Kind    Kind
	Status  int // HTTP status, 0 when no response arrived
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrServer:
		return e.Kind == KindServer
	case ErrNetwork:
		return e.Kind == KindNetwork
	}
	return false
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func invalid(op, msg string) *Error {
	return &Error{Op: op, Kind: KindValidation, Message: msg}
}

// classify maps a client error onto a kind.
func classify(op string, err error) *Error {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		kind := KindServer
		if apiErr.NotFound() {
			kind = KindNotFound
		}
		return &Error{Op: op, Kind: kind, Status: apiErr.StatusCode, Message: apiErr.Message, Err: err}
	case errors.Is(err, client.ErrDecode):
		return &Error{Op: op, Kind: KindServer, Message: "unreadable response", Err: err}
	default:
		// transport failures, cancellation and deadlines
		return &Error{Op: op, Kind: KindNetwork, Message: err.Error(), Err: err}
	}
}
