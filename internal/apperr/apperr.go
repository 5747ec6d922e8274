// Package apperr holds the error kinds shared by the scheduling core.
//
// Core operations wrap one of the kinds with a specific message, e.g.
//
//	fmt.Errorf("%w: report must contain at least 30 words, got %d", apperr.ErrValidation, n)
//
// and callers branch with errors.Is. The HTTP layer maps each kind to a status code.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrSlotConflict     = errors.New("slot conflict")
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyCancelled = errors.New("appointment already cancelled")
	ErrTimeout          = errors.New("operation timed out")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Validation returns an ErrValidation carrying a formatted message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns an ErrNotFound naming the missing entity.
func NotFound(entity string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, entity)
}

// InvalidState returns an ErrInvalidState carrying a formatted message.
func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// Storage wraps an error coming back from a store. Deadline errors become
// ErrTimeout so callers can tell them apart from validation failures; errors
// that already carry a kind pass through untouched.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var kinds = []error{
	ErrValidation,
	ErrNotFound,
	ErrSlotConflict,
	ErrInvalidState,
	ErrAlreadyCancelled,
	ErrTimeout,
	ErrForbidden,
	ErrUnauthorized,
}

// Kind reports which kind err carries, or nil for unclassified errors.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Message returns the human-readable part of err without the kind prefix.
func Message(err error) string {
	msg := err.Error()
	if k := Kind(err); k != nil {
		if trimmed, ok := strings.CutPrefix(msg, k.Error()+": "); ok {
			return trimmed
		}
	}
	return msg
}
