package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"hiresphere/alert-service/internal/model"
)

// UserStore reads the job-seeker profile slice the pipeline needs.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore returns a configured UserStore.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Get returns a user by ID, or ErrNotFound.
func (s *UserStore) Get(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, full_name, alerts_enabled,
		        COALESCE(skills, '{}'), COALESCE(experience, ''), COALESCE(education, '')
		 FROM users
		 WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.AlertsEnabled, &u.Skills, &u.Experience, &u.Education)
	if err != nil {
		return nil, ErrNotFound
	}
	return &u, nil
}
