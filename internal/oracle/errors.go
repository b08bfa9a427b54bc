package oracle

import (
	"context"
	"errors"
	"fmt"
)

// Kind categorizes an oracle failure. The orchestrator treats every kind the
// same way (degrade to the next tier); the kind exists so fallback chains are
// observable in logs and assertable in tests.
type Kind string

const (
	// KindUnavailable covers transport failures, provider errors, and any
	// failure to obtain a response at all.
	KindUnavailable Kind = "unavailable"
	// KindTimeout marks a call that exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindMalformed marks a response that arrived but could not be used
	// (empty, unparseable, schema-invalid).
	KindMalformed Kind = "malformed"
)

// Error wraps an oracle failure with the operation that produced it.
type Error struct {
	Op   string // "classify", "extract", "plan", "research"
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oracle %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error, inferring the timeout kind from the wrapped error.
func NewError(op string, kind Kind, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = KindTimeout
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the Kind of err when it is an *Error, or KindUnavailable.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindUnavailable
}
