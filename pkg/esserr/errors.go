// Package esserr defines the error taxonomy shared by the discovery, session
// and api packages.
//
// Every failure surfaced by this module is an *Error carrying a Category.
// Callers match categories with errors.Is against the package sentinels:
//
//	if errors.Is(err, esserr.ErrNotFound) {
//	    // no appliance answered
//	}
//
// The underlying cause stays reachable through errors.Unwrap, so an exhausted
// re-authentication caused by an unreachable appliance matches both ErrAuth
// and ErrTransport.
package esserr

import (
	"errors"
	"fmt"
)

// Category classifies errors for retry decisions and caller handling.
type Category int

const (
	// CatNotFound means discovery produced no matching advertisement.
	CatNotFound Category = iota + 1
	// CatProtocol means the appliance answered with something unexpected.
	CatProtocol
	// CatAuth means no valid token could be obtained.
	CatAuth
	// CatInvalidArgument means a caller supplied bad parameters.
	CatInvalidArgument
	// CatTransport means a connection-level failure.
	CatTransport
)

func (c Category) String() string {
	switch c {
	case CatNotFound:
		return "not found"
	case CatProtocol:
		return "protocol"
	case CatAuth:
		return "auth"
	case CatInvalidArgument:
		return "invalid argument"
	case CatTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching. An *Error matches the sentinel of its
// category.
var (
	ErrNotFound        = errors.New("not found")
	ErrProtocol        = errors.New("protocol error")
	ErrAuth            = errors.New("authentication failed")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTransport       = errors.New("transport error")
)

// Error wraps a cause with a category and the failing operation.
type Error struct {
	Category Category
	Op       string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Category, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Category)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Category, e.Err)
	default:
		return e.Category.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's category.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Category)
}

func sentinel(c Category) error {
	switch c {
	case CatNotFound:
		return ErrNotFound
	case CatProtocol:
		return ErrProtocol
	case CatAuth:
		return ErrAuth
	case CatInvalidArgument:
		return ErrInvalidArgument
	case CatTransport:
		return ErrTransport
	default:
		return nil
	}
}

// NotFound wraps err as a NotFound error.
func NotFound(op string, err error) error {
	return &Error{Category: CatNotFound, Op: op, Err: err}
}

// Protocol wraps err as a Protocol error.
func Protocol(op string, err error) error {
	return &Error{Category: CatProtocol, Op: op, Err: err}
}

// Auth wraps err as an Auth error.
func Auth(op string, err error) error {
	return &Error{Category: CatAuth, Op: op, Err: err}
}

// InvalidArgument wraps err as an InvalidArgument error.
func InvalidArgument(op string, err error) error {
	return &Error{Category: CatInvalidArgument, Op: op, Err: err}
}

// Transport wraps err as a Transport error.
func Transport(op string, err error) error {
	return &Error{Category: CatTransport, Op: op, Err: err}
}

// CategoryOf returns the category of the outermost *Error in err's chain, or
// 0 if err carries none.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return 0
}
