package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhishek622/careerflow/pkg/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrEmailTaken = errors.New("email already exists")

// EnsureUser registers id and email unless the id already exists, and
// returns the stored user.
func (r *Postgres) EnsureUser(ctx context.Context, id uuid.UUID, email string) (model.User, error) {
	const q = `
INSERT INTO users (id, email) VALUES ($1, $2)
ON CONFLICT (id) DO NOTHING
`
	if _, err := r.db.Exec(ctx, q, id, email); err != nil {
		if isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("insert user: %w", ErrEmailTaken)
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	return r.GetUserByID(ctx, id)
}

func (r *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	const q = `SELECT id, email FROM users WHERE id = $1`
	var (
		uid uuid.UUID
		u   model.User
	)
	if err := r.db.QueryRow(ctx, q, id).Scan(&uid, &u.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("user not found: %w", err)
		}
		return model.User{}, fmt.Errorf("scan user by id: %w", err)
	}
	u.ID = uid.String()
	return u, nil
}
