package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hiresphere/alert-service/internal/model"
)

const alertColumns = `id, user_id, name, keywords, locations, job_types,
	salary_min, salary_max, frequency, is_active, last_sent_at, created_at, updated_at`

// AlertStore persists user-defined alert criteria in the job_alerts table.
type AlertStore struct {
	pool *pgxpool.Pool
}

// NewAlertStore returns a configured AlertStore.
func NewAlertStore(pool *pgxpool.Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Create validates and inserts a new alert for its owner. The ID and
// timestamps are assigned here; a missing name defaults to a keyword summary.
func (s *AlertStore) Create(ctx context.Context, a *model.Alert) error {
	if err := model.ValidateAlert(a); err != nil {
		return err
	}

	a.ID = uuid.NewString()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.LastSentAt = nil

	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_alerts
		   (id, user_id, name, keywords, locations, job_types,
		    salary_min, salary_max, frequency, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.UserID, a.Name, a.Keywords, a.Locations, a.JobTypes,
		a.SalaryMin, a.SalaryMax, string(a.Frequency), a.Active, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// Get returns a single alert by ID, validating ownership.
func (s *AlertStore) Get(ctx context.Context, userID, alertID string) (*model.Alert, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+alertColumns+` FROM job_alerts WHERE id = $1 AND user_id = $2`,
		alertID, userID,
	)
	a, err := scanAlert(row)
	if err != nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// ListByUser returns all alerts belonging to userID, newest first.
func (s *AlertStore) ListByUser(ctx context.Context, userID string) ([]model.Alert, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+alertColumns+` FROM job_alerts WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// ListActiveByFrequency returns every active alert of the given cadence.
// Called once per scheduler cycle.
func (s *AlertStore) ListActiveByFrequency(ctx context.Context, f model.Frequency) ([]model.Alert, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+alertColumns+` FROM job_alerts
		 WHERE is_active = true AND frequency = $1
		 ORDER BY created_at`,
		string(f),
	)
	if err != nil {
		return nil, fmt.Errorf("list active alerts (%s): %w", f, err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// Update replaces the owner-editable criteria of an alert. The last-sent
// watermark is untouched: only the scheduler moves it, via AdvanceWatermark.
func (s *AlertStore) Update(ctx context.Context, a *model.Alert) error {
	if err := model.ValidateAlert(a); err != nil {
		return err
	}
	a.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE job_alerts
		 SET name = $1, keywords = $2, locations = $3, job_types = $4,
		     salary_min = $5, salary_max = $6, frequency = $7, is_active = $8,
		     updated_at = $9
		 WHERE id = $10 AND user_id = $11`,
		a.Name, a.Keywords, a.Locations, a.JobTypes,
		a.SalaryMin, a.SalaryMax, string(a.Frequency), a.Active,
		a.UpdatedAt, a.ID, a.UserID,
	)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an alert, validating ownership.
func (s *AlertStore) Delete(ctx context.Context, userID, alertID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM job_alerts WHERE id = $1 AND user_id = $2`,
		alertID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdvanceWatermark moves the last-sent timestamp forward after a successful
// dispatch. The guard keeps the watermark monotonic even if a stale cycle
// retries an older update.
func (s *AlertStore) AdvanceWatermark(ctx context.Context, alertID string, t time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE job_alerts
		 SET last_sent_at = $1
		 WHERE id = $2 AND (last_sent_at IS NULL OR last_sent_at < $1)`,
		t.UTC(), alertID,
	)
	if err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}
	return nil
}

func scanAlert(row pgx.Row) (*model.Alert, error) {
	var a model.Alert
	var freq string
	err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Keywords, &a.Locations, &a.JobTypes,
		&a.SalaryMin, &a.SalaryMax, &freq, &a.Active, &a.LastSentAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Frequency = model.Frequency(freq)
	return &a, nil
}

func collectAlerts(rows pgx.Rows) ([]model.Alert, error) {
	alerts := make([]model.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}
