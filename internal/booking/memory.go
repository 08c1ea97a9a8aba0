package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepository keeps bookings in process memory. Tests and local
// development use it in place of Postgres; it honors the same Update
// contract via a per-booking mutex.
type MemoryRepository struct {
	mu       sync.Mutex
	bookings map[string]*Booking
	locks    map[string]*sync.Mutex
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bookings: make(map[string]*Booking),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

func (r *MemoryRepository) List(ctx context.Context, f Filter) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Booking
	for _, b := range r.bookings {
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		if f.PendingApproval != nil && (b.ApprovalStatus == ApprovalPending) != *f.PendingApproval {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(b.VehicleNumber), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) Create(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; ok {
		return ErrConflict
	}
	r.bookings[b.ID] = b.Clone()
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, mutate func(*Booking) error) (*Booking, error) {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	stored, ok := r.bookings[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	// Mutate a clone so a failed transition leaves the stored booking
	// byte-identical to before the attempt.
	next := stored.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.Version++

	r.mu.Lock()
	r.bookings[id] = next
	r.mu.Unlock()
	return next.Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string, guard func(*Booking) error) error {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	stored, ok := r.bookings[id]
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if guard != nil {
		if err := guard(stored.Clone()); err != nil {
			return err
		}
	}

	r.mu.Lock()
	delete(r.bookings, id)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) lockFor(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}
