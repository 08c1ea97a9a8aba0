package booking

import "context"

// Filter narrows List results.
type Filter struct {
	Status          *Status
	PendingApproval *bool
	// Query matches vehicle numbers, case-insensitively.
	Query string
}

// Repository is the storage boundary for bookings.
//
// Update is the serialization primitive the engine relies on: it loads the
// booking, holds an exclusive per-booking scope for the duration of mutate,
// and persists the result as a single write. If mutate returns an error,
// nothing is persisted and the stored booking is untouched. At most one
// Update per booking id is in flight at a time.
//
// Delete evaluates guard under the same exclusive scope, against the current
// stored booking, and removes the row only if guard returns nil. A nil guard
// deletes unconditionally.
type Repository interface {
	Get(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, f Filter) ([]*Booking, error)
	Create(ctx context.Context, b *Booking) error
	Update(ctx context.Context, id string, mutate func(*Booking) error) (*Booking, error)
	Delete(ctx context.Context, id string, guard func(*Booking) error) error
}
