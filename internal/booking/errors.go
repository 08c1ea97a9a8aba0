package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound means the booking id does not resolve.
	ErrNotFound = errors.New("booking not found")

	// ErrForbidden means the actor's derived permission set does not
	// authorize the requested operation. Callers must not disclose booking
	// state alongside it.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict means a concurrent modification won the race; the caller
	// should reload and reconsider, not resubmit stale data.
	ErrConflict = errors.New("concurrent modification")

	// ErrPersistenceUnavailable means the underlying store is unreachable.
	// Transient; safe to retry with backoff.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// InvalidTransitionError reports an event that is not legal from the
// booking's current status. The booking is left unmodified.
type InvalidTransitionError struct {
	From  Status
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s not allowed from %s", e.Event, e.From)
}

// ValidationError reports transition-specific preconditions that were not
// met, keyed by the field at fault.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalidField(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
