package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hiresphere/alert-service/internal/model"
)

// JobStore reads job listings. Listings are written by the employer-facing
// side of the platform; this service never mutates them.
type JobStore struct {
	pool *pgxpool.Pool
}

// NewJobStore returns a configured JobStore.
func NewJobStore(pool *pgxpool.Pool) *JobStore {
	return &JobStore{pool: pool}
}

// OpenJobsSince returns open listings created strictly after since (all open
// listings when since is nil), newest first, capped at limit. This is the
// candidate window the matcher filters; the per-criteria clauses are applied
// in Go by the match package.
func (s *JobStore) OpenJobsSince(ctx context.Context, since *time.Time, limit int) ([]model.JobListing, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT j.id, j.employer_id, COALESCE(e.company_name, ''), j.title,
		        j.description, j.requirements, j.location, j.job_type,
		        j.salary_min, j.salary_max, j.status, j.created_at
		 FROM job_listings j
		 LEFT JOIN employers e ON e.id = j.employer_id
		 WHERE j.status = 'open'
		   AND ($1::timestamptz IS NULL OR j.created_at > $1)
		 ORDER BY j.created_at DESC
		 LIMIT $2`,
		since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query open jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]model.JobListing, 0)
	for rows.Next() {
		var j model.JobListing
		if err := rows.Scan(
			&j.ID, &j.EmployerID, &j.EmployerName, &j.Title,
			&j.Description, &j.Requirements, &j.Location, &j.JobType,
			&j.SalaryMin, &j.SalaryMax, &j.Status, &j.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
