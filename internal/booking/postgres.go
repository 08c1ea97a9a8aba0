package booking

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"yardgate/pkg/db"
)

// PostgresRepository stores bookings in Postgres. Update takes a row-level
// lock (SELECT ... FOR UPDATE) so at most one transition per booking is in
// flight at a time.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: pool}
}

const bookingColumns = `
b.id, b.vehicle_number, b.driver_name, b.supplier_name, b.box_count, b.weight_tons::text,
b.status, b.approval_status, b.approval_notes,
b.actual_box_count, b.box_count_diff, b.offloading_notes,
b.rejection_reason, b.rejection_notes,
b.created_at, b.entry_datetime, b.received_at, b.offloading_started_at,
b.offloaded_at, b.exited_at, b.rejected_at,
b.created_by, COALESCE(a.display_name, ''), b.version`

const bookingFrom = `
FROM bookings b
LEFT JOIN actors a ON a.id = b.created_by`

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Booking, error) {
	q := `SELECT ` + bookingColumns + bookingFrom + ` WHERE b.id = $1`
	b, err := scanBooking(r.db.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*Booking, error) {
	q := `SELECT ` + bookingColumns + bookingFrom
	var conds []string
	var args []any
	if f.Status != nil {
		args = append(args, string(*f.Status))
		conds = append(conds, fmt.Sprintf("b.status = $%d", len(args)))
	}
	if f.PendingApproval != nil {
		if *f.PendingApproval {
			conds = append(conds, "b.approval_status = 'pending'")
		} else {
			conds = append(conds, "b.approval_status <> 'pending'")
		}
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		conds = append(conds, fmt.Sprintf("b.vehicle_number ILIKE $%d", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY b.created_at DESC, b.id"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, b)
	}
	return out, mapErr(rows.Err())
}

func (r *PostgresRepository) Create(ctx context.Context, b *Booking) error {
	const q = `
INSERT INTO bookings (
  id, vehicle_number, driver_name, supplier_name, box_count, weight_tons,
  status, approval_status, approval_notes, offloading_notes, rejection_notes,
  created_at, entry_datetime, created_by, version
) VALUES ($1, $2, $3, $4, $5, CAST($6 AS numeric), $7, $8, $9, $10, $11, $12, $13, $14, $15)
`
	_, err := r.db.Exec(ctx, q,
		b.ID, b.VehicleNumber, b.DriverName, b.SupplierName, b.BoxCount, b.WeightTons.String(),
		string(b.Status), string(b.ApprovalStatus), b.ApprovalNotes, b.OffloadingNotes, b.RejectionNotes,
		b.CreatedAt, b.EntryDatetime, b.CreatedBy, b.Version,
	)
	return mapErr(err)
}

func (r *PostgresRepository) Update(ctx context.Context, id string, mutate func(*Booking) error) (*Booking, error) {
	var out *Booking
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		q := `SELECT ` + bookingColumns + bookingFrom + ` WHERE b.id = $1 FOR UPDATE OF b`
		b, err := scanBooking(tx.QueryRow(ctx, q, id))
		if err != nil {
			return err
		}

		if err := mutate(b); err != nil {
			return err
		}
		b.Version++

		const update = `
UPDATE bookings SET
  vehicle_number = $2, driver_name = $3, supplier_name = $4,
  box_count = $5, weight_tons = CAST($6 AS numeric),
  status = $7, approval_status = $8, approval_notes = $9,
  actual_box_count = $10, box_count_diff = $11, offloading_notes = $12,
  rejection_reason = $13, rejection_notes = $14,
  entry_datetime = $15, received_at = $16, offloading_started_at = $17,
  offloaded_at = $18, exited_at = $19, rejected_at = $20,
  version = $21
WHERE id = $1
`
		var reason *string
		if b.RejectionReason != nil {
			s := string(*b.RejectionReason)
			reason = &s
		}
		_, err = tx.Exec(ctx, update,
			b.ID, b.VehicleNumber, b.DriverName, b.SupplierName,
			b.BoxCount, b.WeightTons.String(),
			string(b.Status), string(b.ApprovalStatus), b.ApprovalNotes,
			b.ActualBoxCount, b.BoxCountDiff, b.OffloadingNotes,
			reason, b.RejectionNotes,
			b.EntryDatetime, b.ReceivedAt, b.OffloadingStartedAt,
			b.OffloadedAt, b.ExitedAt, b.RejectedAt,
			b.Version,
		)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string, guard func(*Booking) error) error {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		q := `SELECT ` + bookingColumns + bookingFrom + ` WHERE b.id = $1 FOR UPDATE OF b`
		b, err := scanBooking(tx.QueryRow(ctx, q, id))
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(b); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
		return err
	})
	return mapErr(err)
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var weight string
	var status, approvalStatus string
	var reason *string
	if err := row.Scan(
		&b.ID, &b.VehicleNumber, &b.DriverName, &b.SupplierName, &b.BoxCount, &weight,
		&status, &approvalStatus, &b.ApprovalNotes,
		&b.ActualBoxCount, &b.BoxCountDiff, &b.OffloadingNotes,
		&reason, &b.RejectionNotes,
		&b.CreatedAt, &b.EntryDatetime, &b.ReceivedAt, &b.OffloadingStartedAt,
		&b.OffloadedAt, &b.ExitedAt, &b.RejectedAt,
		&b.CreatedBy, &b.CreatedByName, &b.Version,
	); err != nil {
		return nil, err
	}

	w, err := decimal.NewFromString(weight)
	if err != nil {
		return nil, fmt.Errorf("bad weight_tons %q: %w", weight, err)
	}
	b.WeightTons = w
	b.Status = Status(status)
	b.ApprovalStatus = ApprovalStatus(approvalStatus)
	if reason != nil {
		rr := RejectionReason(*reason)
		b.RejectionReason = &rr
	}
	return &b, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure / lock_not_available: the caller lost a race.
		if pgErr.Code == "40001" || pgErr.Code == "55P03" {
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
		}
		return err
	}
	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) ||
		pgconn.SafeToRetry(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	return err
}

var _ Repository = (*PostgresRepository)(nil)
var _ Repository = (*MemoryRepository)(nil)
