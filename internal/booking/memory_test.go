package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBooking(t *testing.T, r *MemoryRepository, id string, status Status, createdAt time.Time) *Booking {
	t.Helper()
	b := &Booking{
		ID:            id,
		VehicleNumber: "MH-12-XY-" + id,
		BoxCount:      10,
		Status:        status,
		CreatedAt:     createdAt,
		CreatedBy:     "seed",
	}
	require.NoError(t, r.Create(context.Background(), b))
	return b
}

func TestMemoryRepositoryNotFound(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	_, err := r.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Update(ctx, "missing", func(b *Booking) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "missing", nil), ErrNotFound)
}

func TestMemoryRepositoryDeleteGuard(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	seedBooking(t, r, "b1", StatusReceived, time.Now())

	// A refusing guard leaves the booking in place.
	err := r.Delete(ctx, "b1", func(b *Booking) error {
		assert.Equal(t, StatusReceived, b.Status, "guard must see the stored state")
		return ErrForbidden
	})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = r.Get(ctx, "b1")
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, "b1", func(b *Booking) error { return nil }))
	_, err = r.Get(ctx, "b1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryDuplicateCreate(t *testing.T) {
	r := NewMemoryRepository()
	seedBooking(t, r, "b1", StatusBooked, time.Now())
	err := r.Create(context.Background(), &Booking{ID: "b1", VehicleNumber: "x", BoxCount: 1})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryRepositoryFailedUpdateIsAtomic(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	seedBooking(t, r, "b1", StatusBooked, time.Now())

	boom := errors.New("precondition failed")
	_, err := r.Update(ctx, "b1", func(b *Booking) error {
		b.Status = StatusRejected
		b.DriverName = "scribbled"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := r.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, got.Status)
	assert.Empty(t, got.DriverName)
	assert.Equal(t, int64(0), got.Version)
}

func TestMemoryRepositoryUpdateBumpsVersion(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	seedBooking(t, r, "b1", StatusBooked, time.Now())

	got, err := r.Update(ctx, "b1", func(b *Booking) error {
		b.Status = StatusReceived
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, StatusReceived, got.Status)
}

func TestMemoryRepositoryReturnsClones(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	seedBooking(t, r, "b1", StatusBooked, time.Now())

	got, err := r.Get(ctx, "b1")
	require.NoError(t, err)
	got.Status = StatusRejected

	again, err := r.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, again.Status, "caller mutation must not reach the store")
}

func TestMemoryRepositoryListFilters(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	seedBooking(t, r, "b1", StatusBooked, base)
	seedBooking(t, r, "b2", StatusReceived, base.Add(time.Hour))
	b3 := seedBooking(t, r, "b3", StatusBooked, base.Add(2*time.Hour))
	_, err := r.Update(ctx, b3.ID, func(b *Booking) error {
		b.ApprovalStatus = ApprovalPending
		return nil
	})
	require.NoError(t, err)

	all, err := r.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b3", all[0].ID, "newest first")
	assert.Equal(t, "b1", all[2].ID)

	status := StatusBooked
	booked, err := r.List(ctx, Filter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, booked, 2)

	pending := true
	got, err := r.List(ctx, Filter{PendingApproval: &pending})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b3", got[0].ID)

	got, err = r.List(ctx, Filter{Query: "xy-b2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b2", got[0].ID)
}

func TestMemoryRepositoryConcurrentUpdates(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	seedBooking(t, r, "b1", StatusBooked, time.Now())

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := r.Update(ctx, "b1", func(b *Booking) error {
				b.BoxCount++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := r.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 10+n, got.BoxCount, "updates must not be lost")
	assert.Equal(t, int64(n), got.Version)
}
