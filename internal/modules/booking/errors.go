package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"venuebook/internal/domain"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrCapacityExceeded  = errors.New("guest count exceeds hall capacity")
	ErrDateUnavailable   = errors.New("requested dates are unavailable")
	ErrInvalidTransition = errors.New("invalid booking transition")
	ErrUnauthorized      = errors.New("not allowed to act on this booking")
	ErrNotFound          = errors.New("not found")
)

// ValidationError carries per-field details and matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, problem string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: problem}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransitionError explains why an event was refused. It matches ErrInvalidTransition.
type TransitionError struct {
	From   domain.BookingStatus
	Event  Event
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("cannot apply %s to a %s booking", e.Event, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// DateUnavailableError lists the conflicting days.
type DateUnavailableError struct {
	Days []string
}

func (e *DateUnavailableError) Error() string {
	return "dates unavailable: " + strings.Join(e.Days, ", ")
}

func (e *DateUnavailableError) Unwrap() error { return ErrDateUnavailable }
