package actor

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the actor directory: it remembers the display name and role
// last seen for an actor id so bookings can resolve created_by into a name
// without re-contacting the identity provider.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Upsert(ctx context.Context, a Actor) error {
	const q = `
INSERT INTO actors (id, display_name, role)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET
  display_name = EXCLUDED.display_name,
  role = EXCLUDED.role,
  updated_at = NOW()
`
	_, err := r.db.Exec(ctx, q, a.ID, a.Name, string(a.Role))
	return err
}

func (r *Repository) DisplayName(ctx context.Context, id string) (string, error) {
	const q = `SELECT display_name FROM actors WHERE id = $1`
	var name string
	if err := r.db.QueryRow(ctx, q, id).Scan(&name); err != nil {
		return "", err
	}
	return name, nil
}
