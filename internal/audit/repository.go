package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"yardgate/internal/booking"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, actorID, action string, bookingID *string, metadata any) error {
	var s *string
	if metadata != nil {
		b, _ := json.Marshal(metadata)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO audit_logs (actor_id, action, booking_id, metadata)
VALUES ($1, $2, $3, CAST($4 AS jsonb))
`
	_, err := r.db.Exec(ctx, q, actorID, action, bookingID, s)
	return err
}

// TransitionRecorded mirrors every transition into the audit log; it
// implements booking.Sink alongside the events repository.
func (r *Repository) TransitionRecorded(ctx context.Context, ev booking.TransitionEvent) error {
	id := ev.BookingID
	return r.Insert(ctx, ev.ActorID, "STATUS_CHANGED", &id, map[string]any{
		"event": ev.Event,
		"from":  ev.From,
		"to":    ev.To,
	})
}

var _ booking.Sink = (*Repository)(nil)
