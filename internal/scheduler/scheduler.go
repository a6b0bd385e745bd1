// Package scheduler wires up the cron jobs that periodically sweep active
// alerts, one cadence each for immediate, daily and weekly.
//
// Within a cycle alerts are processed sequentially and in isolation: one
// alert's failure is logged and the sweep moves on. An alert's last-sent
// watermark advances only after its digest was actually delivered, so a
// failed send leaves the same jobs matchable in the next cycle.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"hiresphere/alert-service/internal/digest"
	"hiresphere/alert-service/internal/match"
	"hiresphere/alert-service/internal/metrics"
	"hiresphere/alert-service/internal/model"
	"hiresphere/alert-service/internal/store"
)

// testLookback is the fixed window for the manual "test this alert" path.
const testLookback = 30 * 24 * time.Hour

// lockTTL bounds how long a cycle lock can outlive a crashed process.
const lockTTL = 15 * time.Minute

// AlertSource is the slice of the alert store the scheduler drives.
type AlertSource interface {
	ListActiveByFrequency(ctx context.Context, f model.Frequency) ([]model.Alert, error)
	AdvanceWatermark(ctx context.Context, alertID string, t time.Time) error
}

// UserSource loads digest recipients.
type UserSource interface {
	Get(ctx context.Context, userID string) (*model.User, error)
}

// Matcher computes an alert's new matches since a lower bound.
type Matcher interface {
	FindMatches(ctx context.Context, alert model.Alert, since *time.Time, limit int) ([]model.JobListing, error)
}

// Composer builds the digest payload; nil means nothing to send.
type Composer interface {
	Compose(ctx context.Context, recipient model.User, alert model.Alert, jobs []model.JobListing) *digest.Digest
}

// Dispatcher delivers a digest; only a true result advances the watermark.
type Dispatcher interface {
	Send(ctx context.Context, recipient model.User, dg *digest.Digest) bool
}

// Locker serializes cycles per cadence across fires and replicas, so a slow
// cycle is never overlapped by the next one processing the same alerts.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Events receives non-fatal pipeline notifications (digest sent).
type Events interface {
	DigestSent(ctx context.Context, alertID, userID string, jobCount int)
}

// Deps bundles the collaborators a Scheduler drives.
type Deps struct {
	Alerts     AlertSource
	Users      UserSource
	Matcher    Matcher
	Composer   Composer
	Dispatcher Dispatcher
	Lock       Locker
	Events     Events
}

// Specs maps each cadence to its cron spec.
type Specs map[model.Frequency]string

// Scheduler owns the three recurring cadence triggers. It is an explicit
// component with a start/stop lifecycle — nothing registers timers at
// package load, and cycles can be driven directly in tests via RunCycle.
type Scheduler struct {
	cron  *cron.Cron
	deps  Deps
	specs Specs
	now   func() time.Time
}

// New creates a Scheduler. now is injectable for tests; pass nil for wall
// clock.
func New(deps Deps, specs Specs, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		cron:  cron.New(cron.WithLogger(cron.DefaultLogger)),
		deps:  deps,
		specs: specs,
		now:   now,
	}
}

// Start registers one cron entry per cadence and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, f := range model.Frequencies {
		spec, ok := s.specs[f]
		if !ok {
			return fmt.Errorf("no cron spec for frequency %q", f)
		}
		freq := f
		if _, err := s.cron.AddFunc(spec, func() {
			s.RunCycle(ctx, freq)
		}); err != nil {
			return fmt.Errorf("cron.AddFunc(%s): %w", freq, err)
		}
	}

	s.cron.Start()
	slog.Info("alert scheduler started",
		"immediate", s.specs[model.FrequencyImmediate],
		"daily", s.specs[model.FrequencyDaily],
		"weekly", s.specs[model.FrequencyWeekly],
	)
	return nil
}

// Stop halts the cron entries. Running cycles finish their current alert.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	slog.Info("alert scheduler stopped")
}

// RunCycle executes one full sweep for the given cadence. All failures are
// contained: the cycle always completes and closes with a summary line.
func (s *Scheduler) RunCycle(ctx context.Context, f model.Frequency) {
	started := s.now()
	metrics.CyclesTotal.WithLabelValues(string(f)).Inc()

	lockKey := "alerts:cycle:" + string(f)
	ok, err := s.deps.Lock.Acquire(ctx, lockKey, lockTTL)
	if err != nil {
		slog.Error("cycle lock error", "frequency", f, "err", err)
		return
	}
	if !ok {
		slog.Warn("cycle already running, skipping", "frequency", f)
		return
	}
	defer func() {
		if err := s.deps.Lock.Release(ctx, lockKey); err != nil {
			slog.Warn("cycle lock release failed", "frequency", f, "err", err)
		}
	}()

	alerts, err := s.deps.Alerts.ListActiveByFrequency(ctx, f)
	if err != nil {
		slog.Error("load active alerts failed", "frequency", f, "err", err)
		return
	}
	if len(alerts) == 0 {
		slog.Info("cycle complete, no active alerts", "frequency", f)
		return
	}

	var sent, empty, skipped, failed int
	for _, alert := range alerts {
		outcome := s.processAlert(ctx, alert)
		metrics.AlertsProcessed.WithLabelValues(outcome).Inc()
		switch outcome {
		case "sent":
			sent++
		case "empty":
			empty++
		case "skipped":
			skipped++
		default:
			failed++
		}
	}

	metrics.CycleDuration.WithLabelValues(string(f)).Observe(s.now().Sub(started).Seconds())
	slog.Info("cycle complete", "frequency", f, "alerts", len(alerts),
		"sent", sent, "empty", empty, "skipped", skipped, "failed", failed)
}

// processAlert runs the match → compose → dispatch pipeline for one alert
// and returns its outcome: "sent", "empty", "skipped" or "failed". Errors
// never escape — cross-alert isolation is the whole point of this method.
func (s *Scheduler) processAlert(ctx context.Context, alert model.Alert) string {
	user, err := s.deps.Users.Get(ctx, alert.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("alert owner not found, skipping", "alertId", alert.ID, "userId", alert.UserID)
			return "skipped"
		}
		slog.Error("load alert owner failed", "alertId", alert.ID, "userId", alert.UserID, "err", err)
		return "failed"
	}
	if !user.AlertsEnabled {
		return "skipped"
	}

	jobs, err := s.deps.Matcher.FindMatches(ctx, alert, alert.LastSentAt, match.PerAlertLimit)
	if err != nil {
		slog.Error("match failed", "alertId", alert.ID, "userId", alert.UserID, "err", err)
		return "failed"
	}

	dg := s.deps.Composer.Compose(ctx, *user, alert, jobs)
	if dg == nil {
		return "empty"
	}

	if !s.deps.Dispatcher.Send(ctx, *user, dg) {
		// Watermark stays put: these jobs remain matchable next cycle.
		return "failed"
	}

	if err := s.deps.Alerts.AdvanceWatermark(ctx, alert.ID, s.now()); err != nil {
		slog.Error("watermark update failed", "alertId", alert.ID, "err", err)
	}
	s.deps.Events.DigestSent(ctx, alert.ID, user.ID, len(dg.Jobs))
	return "sent"
}

// TestAlert runs the pipeline once for a single alert with a fixed 30-day
// lookback. Read-only with respect to alert state: the watermark is never
// touched, whatever the outcome.
func (s *Scheduler) TestAlert(ctx context.Context, alert model.Alert) (matched int, delivered bool, err error) {
	user, err := s.deps.Users.Get(ctx, alert.UserID)
	if err != nil {
		return 0, false, fmt.Errorf("load alert owner: %w", err)
	}

	since := s.now().Add(-testLookback)
	jobs, err := s.deps.Matcher.FindMatches(ctx, alert, &since, match.PerAlertLimit)
	if err != nil {
		return 0, false, err
	}

	dg := s.deps.Composer.Compose(ctx, *user, alert, jobs)
	if dg == nil {
		return 0, false, nil
	}
	return len(jobs), s.deps.Dispatcher.Send(ctx, *user, dg), nil
}
