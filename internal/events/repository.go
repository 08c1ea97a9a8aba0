package events

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"yardgate/internal/booking"
)

// Record is one row of a booking's transition history.
type Record struct {
	ID         int64          `json:"id"`
	BookingID  string         `json:"booking_id"`
	Event      string         `json:"event"`
	FromStatus booking.Status `json:"from_status"`
	ToStatus   booking.Status `json:"to_status"`
	ActorID    string         `json:"actor_id"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// TransitionRecorded persists the event; it implements booking.Sink.
func (r *Repository) TransitionRecorded(ctx context.Context, ev booking.TransitionEvent) error {
	const q = `
INSERT INTO booking_events (booking_id, event, from_status, to_status, actor_id, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := r.db.Exec(ctx, q,
		ev.BookingID, string(ev.Event), string(ev.From), string(ev.To), ev.ActorID, ev.OccurredAt,
	)
	return err
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Record, error) {
	const q = `
SELECT id, booking_id, event, from_status, to_status, actor_id, occurred_at
FROM booking_events
WHERE booking_id = $1
ORDER BY occurred_at, id
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.BookingID, &rec.Event, &rec.FromStatus, &rec.ToStatus, &rec.ActorID, &rec.OccurredAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ booking.Sink = (*Repository)(nil)
