package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"yardgate/internal/actor"
)

const maxNotesLen = 500

// TransitionEvent is emitted once per successful transition. For approval
// overlay events From and To carry the same status.
type TransitionEvent struct {
	BookingID  string    `json:"booking_id"`
	Event      Event     `json:"event"`
	From       Status    `json:"from_status"`
	To         Status    `json:"to_status"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink receives transition events. Delivery is best effort: the engine logs
// sink failures and never fails the transition over them.
type Sink interface {
	TransitionRecorded(ctx context.Context, ev TransitionEvent) error
}

// MultiSink fans one event out to several sinks.
type MultiSink []Sink

func (m MultiSink) TransitionRecorded(ctx context.Context, ev TransitionEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.TransitionRecorded(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Engine owns the booking lifecycle: it validates the actor's permissions,
// the transition's legality and its field preconditions before mutating
// anything, then persists the whole change as one write.
type Engine struct {
	repo Repository
	sink Sink
	log  zerolog.Logger
	now  func() time.Time
}

func NewEngine(repo Repository, sink Sink, log zerolog.Logger) *Engine {
	return &Engine{
		repo: repo,
		sink: sink,
		log:  log,
		now:  time.Now,
	}
}

func (e *Engine) Get(ctx context.Context, id string) (*Booking, error) {
	return e.repo.Get(ctx, id)
}

func (e *Engine) List(ctx context.Context, f Filter) ([]*Booking, error) {
	return e.repo.List(ctx, f)
}

type CreateParams struct {
	VehicleNumber string
	DriverName    string
	SupplierName  string
	BoxCount      int
	WeightTons    decimal.Decimal
	EntryDatetime *time.Time
}

func (e *Engine) Create(ctx context.Context, a actor.Actor, p CreateParams) (*Booking, error) {
	if err := validateDescriptive(p.VehicleNumber, p.BoxCount, p.WeightTons); err != nil {
		return nil, err
	}

	now := e.now().UTC()
	entry := now
	if p.EntryDatetime != nil {
		entry = p.EntryDatetime.UTC()
	}

	approval := ApprovalNone
	if a.RequiresApproval() {
		approval = ApprovalPending
	}

	b := &Booking{
		ID:             uuid.NewString(),
		VehicleNumber:  strings.TrimSpace(p.VehicleNumber),
		DriverName:     strings.TrimSpace(p.DriverName),
		SupplierName:   strings.TrimSpace(p.SupplierName),
		BoxCount:       p.BoxCount,
		WeightTons:     p.WeightTons,
		Status:         StatusBooked,
		ApprovalStatus: approval,
		CreatedAt:      now,
		EntryDatetime:  entry,
		CreatedBy:      a.ID,
		CreatedByName:  a.Name,
	}
	if err := e.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

type EditParams struct {
	VehicleNumber *string
	DriverName    *string
	SupplierName  *string
	BoxCount      *int
	WeightTons    *decimal.Decimal
	EntryDatetime *time.Time
}

// Edit changes descriptive fields only. Editing after receipt is disallowed
// to preserve audit integrity; that rule lives in the permission projector.
func (e *Engine) Edit(ctx context.Context, a actor.Actor, id string, p EditParams) (*Booking, error) {
	return e.repo.Update(ctx, id, func(b *Booking) error {
		if !Derive(b, a).CanEdit {
			return ErrForbidden
		}
		if p.VehicleNumber != nil {
			b.VehicleNumber = strings.TrimSpace(*p.VehicleNumber)
		}
		if p.DriverName != nil {
			b.DriverName = strings.TrimSpace(*p.DriverName)
		}
		if p.SupplierName != nil {
			b.SupplierName = strings.TrimSpace(*p.SupplierName)
		}
		if p.BoxCount != nil {
			b.BoxCount = *p.BoxCount
		}
		if p.WeightTons != nil {
			b.WeightTons = *p.WeightTons
		}
		if p.EntryDatetime != nil {
			b.EntryDatetime = p.EntryDatetime.UTC()
		}
		return validateDescriptive(b.VehicleNumber, b.BoxCount, b.WeightTons)
	})
}

// Delete removes a booking still in booked. The permission check runs inside
// the repository's exclusive scope so a transition landing concurrently
// cannot slip a received booking past it.
func (e *Engine) Delete(ctx context.Context, a actor.Actor, id string) error {
	return e.repo.Delete(ctx, id, func(b *Booking) error {
		if !Derive(b, a).CanDelete {
			return ErrForbidden
		}
		return nil
	})
}

// Receive admits a booked vehicle into the yard. Blocked while approval is
// pending; a rejected approval leaves the booking receivable again.
func (e *Engine) Receive(ctx context.Context, a actor.Actor, id string) (*Booking, error) {
	return e.transition(ctx, a, id, EventReceive, nil, func(b *Booking, now time.Time) {
		b.Status = StatusReceived
		b.ReceivedAt = &now
	})
}

// Unreceive reverts received back to booked; the only operation that clears
// a stage timestamp.
func (e *Engine) Unreceive(ctx context.Context, a actor.Actor, id string) (*Booking, error) {
	return e.transition(ctx, a, id, EventUnreceive, nil, func(b *Booking, now time.Time) {
		b.Status = StatusBooked
		b.ReceivedAt = nil
	})
}

func (e *Engine) Reject(ctx context.Context, a actor.Actor, id string, reason RejectionReason, notes string) (*Booking, error) {
	notes = strings.TrimSpace(notes)
	check := func(b *Booking) error {
		if _, err := ParseRejectionReason(string(reason)); err != nil {
			return invalidField("rejection_reason", "must be a known rejection reason")
		}
		if len(notes) > maxNotesLen {
			return invalidField("rejection_notes", "must be at most 500 characters")
		}
		if reason == ReasonOther && notes == "" {
			return invalidField("rejection_notes", "required when reason is Other")
		}
		return nil
	}
	return e.transition(ctx, a, id, EventReject, check, func(b *Booking, now time.Time) {
		b.Status = StatusRejected
		b.RejectedAt = &now
		r := reason
		b.RejectionReason = &r
		b.RejectionNotes = notes
	})
}

func (e *Engine) StartOffloading(ctx context.Context, a actor.Actor, id string) (*Booking, error) {
	return e.transition(ctx, a, id, EventStartOffloading, nil, func(b *Booking, now time.Time) {
		b.Status = StatusOffloading
		b.OffloadingStartedAt = &now
	})
}

// CompleteOffloading records the counted boxes. The diff against the
// expected count is informational and never blocks completion.
func (e *Engine) CompleteOffloading(ctx context.Context, a actor.Actor, id string, actualBoxCount int, notes string) (*Booking, error) {
	check := func(b *Booking) error {
		if actualBoxCount <= 0 {
			return invalidField("actual_box_count", "must be greater than zero")
		}
		return nil
	}
	return e.transition(ctx, a, id, EventCompleteOffloading, check, func(b *Booking, now time.Time) {
		b.Status = StatusOffloaded
		b.OffloadedAt = &now
		actual := actualBoxCount
		b.ActualBoxCount = &actual
		diff := actual - b.BoxCount
		b.BoxCountDiff = &diff
		b.OffloadingNotes = strings.TrimSpace(notes)
	})
}

func (e *Engine) Exit(ctx context.Context, a actor.Actor, id string) (*Booking, error) {
	return e.transition(ctx, a, id, EventExit, nil, func(b *Booking, now time.Time) {
		b.Status = StatusExited
		b.ExitedAt = &now
	})
}

// Approve resolves a pending approval; status is untouched, receive simply
// becomes permitted afterwards.
func (e *Engine) Approve(ctx context.Context, a actor.Actor, id string) (*Booking, error) {
	return e.overlay(ctx, a, id, EventApprove, func(b *Booking) error {
		b.ApprovalStatus = ApprovalApproved
		return nil
	})
}

// RejectApproval records a refused approval. The booking stays booked: the
// approval record is deliberately kept separate from the operational
// outcome, and an operator must still reject or park the vehicle.
func (e *Engine) RejectApproval(ctx context.Context, a actor.Actor, id string, notes string) (*Booking, error) {
	notes = strings.TrimSpace(notes)
	return e.overlay(ctx, a, id, EventRejectApproval, func(b *Booking) error {
		if notes == "" {
			return invalidField("notes", "required")
		}
		if len(notes) > maxNotesLen {
			return invalidField("notes", "must be at most 500 characters")
		}
		b.ApprovalStatus = ApprovalRejected
		b.ApprovalNotes = notes
		return nil
	})
}

// transition runs one guarded status change. Check order: actor capability
// (no state disclosed), transition legality, then the full permission
// projection (approval gate included), then field preconditions. Only after
// all pass is the booking mutated, inside the repository's exclusive scope.
func (e *Engine) transition(ctx context.Context, a actor.Actor, id string, ev Event, check func(*Booking) error, apply func(*Booking, time.Time)) (*Booking, error) {
	var rec TransitionEvent
	updated, err := e.repo.Update(ctx, id, func(b *Booking) error {
		if !capabilityFor(a, ev) {
			return ErrForbidden
		}
		if !CanTransition(b.Status, ev) {
			return &InvalidTransitionError{From: b.Status, Event: ev}
		}
		if !Derive(b, a).Allows(ev) {
			return ErrForbidden
		}
		if check != nil {
			if err := check(b); err != nil {
				return err
			}
		}

		now := e.now().UTC()
		from := b.Status
		apply(b, now)
		rec = TransitionEvent{
			BookingID:  b.ID,
			Event:      ev,
			From:       from,
			To:         b.Status,
			ActorID:    a.ID,
			OccurredAt: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.emit(ctx, rec)
	return updated, nil
}

// overlay runs an approval overlay change. Same guard order as transition,
// but legality means "approval is pending" rather than a status edge.
func (e *Engine) overlay(ctx context.Context, a actor.Actor, id string, ev Event, apply func(*Booking) error) (*Booking, error) {
	var rec TransitionEvent
	updated, err := e.repo.Update(ctx, id, func(b *Booking) error {
		if !capabilityFor(a, ev) {
			return ErrForbidden
		}
		if b.ApprovalStatus != ApprovalPending {
			return &InvalidTransitionError{From: b.Status, Event: ev}
		}
		if !Derive(b, a).Allows(ev) {
			return ErrForbidden
		}
		if err := apply(b); err != nil {
			return err
		}
		rec = TransitionEvent{
			BookingID:  b.ID,
			Event:      ev,
			From:       b.Status,
			To:         b.Status,
			ActorID:    a.ID,
			OccurredAt: e.now().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.emit(ctx, rec)
	return updated, nil
}

func (e *Engine) emit(ctx context.Context, rec TransitionEvent) {
	if e.sink == nil || rec.BookingID == "" {
		return
	}
	if err := e.sink.TransitionRecorded(ctx, rec); err != nil {
		e.log.Warn().Err(err).
			Str("booking_id", rec.BookingID).
			Str("event", string(rec.Event)).
			Msg("transition event not recorded")
	}
}

func validateDescriptive(vehicleNumber string, boxCount int, weight decimal.Decimal) error {
	fields := map[string]string{}
	if strings.TrimSpace(vehicleNumber) == "" {
		fields["vehicle_number"] = "required"
	}
	if boxCount <= 0 {
		fields["box_count"] = "must be greater than zero"
	}
	if weight.IsNegative() {
		fields["weight_tons"] = "must not be negative"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
