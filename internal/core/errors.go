package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure surfaced by the ledger matches exactly one of
// them through errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrBackend    = errors.New("backend failure")

	// ErrInconsistent marks a write that committed but could not be read
	// back. It also matches ErrNotFound.
	ErrInconsistent = fmt.Errorf("inconsistent state: %w", ErrNotFound)
)

// OpError tags a failure with the operation that produced it.
type OpError struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *OpError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Kind != nil:
		b.WriteString(e.Kind.Error())
	default:
		b.WriteString("unknown error")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func (e *OpError) Is(target error) bool {
	return e.Kind != nil && errors.Is(e.Kind, target)
}

func Invalid(msg string) error {
	return &OpError{Kind: ErrValidation, Message: msg}
}

func Conflict(op, msg string) error {
	return &OpError{Op: op, Kind: ErrConflict, Message: msg}
}

func NotFound(op, msg string) error {
	return &OpError{Op: op, Kind: ErrNotFound, Message: msg}
}

func Inconsistent(op, msg string) error {
	return &OpError{Op: op, Kind: ErrInconsistent, Message: msg}
}

// Backend wraps a store failure. Errors that already carry a kind are
// returned unchanged.
func Backend(op string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Op: op, Kind: ErrBackend, Err: err}
}

// Kind names the category of err for logs and API payloads.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInconsistent):
		return "inconsistent"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "backend"
	}
}

// PublicMessage returns the part of err that is safe to show to a caller.
// Backend details stay in the logs.
func PublicMessage(err error) string {
	var opErr *OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Kind, ErrBackend) {
			return fmt.Sprintf("Backend error during %q.", opErr.Op)
		}
		if opErr.Message != "" {
			return opErr.Message
		}
		return opErr.Kind.Error()
	}
	return "Internal server error."
}
