package remote

import (
	"errors"
	"fmt"
)

// Kind classifies the outcome of a remote call. The classification is carried
// as data, never inferred from error text, so workflows can map each kind to
// a distinct externally visible status.
type Kind string

const (
	// KindNotFound: the dependency answered and the entity does not exist.
	KindNotFound Kind = "NotFound"
	// KindValidation: the dependency answered and rejected the request
	// (e.g. decrementing a book with no available copies).
	KindValidation Kind = "Validation"
	// KindUnavailable: the call never produced a well-formed answer —
	// breaker open, connection failure, deadline expiry, or a 5xx.
	KindUnavailable Kind = "Unavailable"
)

// CallError is the error returned by every remote client method.
type CallError struct {
	Kind       Kind
	Dependency string
	Operation  string
	Message    string
	Cause      error
}

func (e *CallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s: %s (%v)", e.Dependency, e.Operation, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Dependency, e.Operation, e.Kind, e.Message)
}

func (e *CallError) Unwrap() error { return e.Cause }

// Is matches on Kind so callers can compare with errors.Is against a
// prototype like &CallError{Kind: KindNotFound}.
func (e *CallError) Is(target error) bool {
	t, ok := target.(*CallError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func IsNotFound(err error) bool    { return kindOf(err) == KindNotFound }
func IsValidation(err error) bool  { return kindOf(err) == KindValidation }
func IsUnavailable(err error) bool { return kindOf(err) == KindUnavailable }

func kindOf(err error) Kind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
