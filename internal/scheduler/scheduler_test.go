package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hiresphere/alert-service/internal/digest"
	"hiresphere/alert-service/internal/model"
	"hiresphere/alert-service/internal/scheduler"
	"hiresphere/alert-service/internal/store"
)

var cycleTime = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// ── Fakes ──────────────────────────────────────────────────────────────────

type fakeAlerts struct {
	alerts     []model.Alert
	listErr    error
	watermarks map[string]time.Time
}

func (f *fakeAlerts) ListActiveByFrequency(ctx context.Context, freq model.Frequency) ([]model.Alert, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Alert, 0)
	for _, a := range f.alerts {
		if a.Active && a.Frequency == freq {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlerts) AdvanceWatermark(ctx context.Context, alertID string, t time.Time) error {
	if f.watermarks == nil {
		f.watermarks = make(map[string]time.Time)
	}
	if prev, ok := f.watermarks[alertID]; ok && !t.After(prev) {
		return nil // monotonic guard, mirrors the SQL WHERE clause
	}
	f.watermarks[alertID] = t
	return nil
}

type fakeUsers struct {
	users map[string]model.User
}

func (f *fakeUsers) Get(ctx context.Context, userID string) (*model.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

type fakeMatcher struct {
	jobs   map[string][]model.JobListing // per alert ID
	errs   map[string]error
	since  map[string]*time.Time // records the lower bound per call
	called []string
}

func (f *fakeMatcher) FindMatches(ctx context.Context, alert model.Alert, since *time.Time, limit int) ([]model.JobListing, error) {
	f.called = append(f.called, alert.ID)
	if f.since == nil {
		f.since = make(map[string]*time.Time)
	}
	f.since[alert.ID] = since
	if err := f.errs[alert.ID]; err != nil {
		return nil, err
	}
	return f.jobs[alert.ID], nil
}

type fakeDispatcher struct {
	fail map[string]bool // per alert ID
	sent []string
}

func (f *fakeDispatcher) Send(ctx context.Context, recipient model.User, dg *digest.Digest) bool {
	if f.fail[dg.AlertID] {
		return false
	}
	f.sent = append(f.sent, dg.AlertID)
	return true
}

type fakeLock struct {
	held     bool
	err      error
	acquired []string
	released []string
}

func (f *fakeLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.held {
		return false, nil
	}
	f.acquired = append(f.acquired, key)
	return true, nil
}

func (f *fakeLock) Release(ctx context.Context, key string) error {
	f.released = append(f.released, key)
	return nil
}

type fakeEvents struct{ sent []string }

func (f *fakeEvents) DigestSent(ctx context.Context, alertID, userID string, jobCount int) {
	f.sent = append(f.sent, alertID)
}

// ── Harness ────────────────────────────────────────────────────────────────

type harness struct {
	alerts     *fakeAlerts
	users      *fakeUsers
	matcher    *fakeMatcher
	dispatcher *fakeDispatcher
	lock       *fakeLock
	events     *fakeEvents
	sched      *scheduler.Scheduler
}

func newHarness(alerts ...model.Alert) *harness {
	h := &harness{
		alerts:     &fakeAlerts{alerts: alerts},
		users:      &fakeUsers{users: map[string]model.User{"u1": {ID: "u1", Email: "ana@example.com", AlertsEnabled: true}}},
		matcher:    &fakeMatcher{jobs: map[string][]model.JobListing{}, errs: map[string]error{}},
		dispatcher: &fakeDispatcher{fail: map[string]bool{}},
		lock:       &fakeLock{},
		events:     &fakeEvents{},
	}
	composer := digest.NewComposer(digest.NoopGenerator{}, "https://example.com", time.Second)
	h.sched = scheduler.New(scheduler.Deps{
		Alerts:     h.alerts,
		Users:      h.users,
		Matcher:    h.matcher,
		Composer:   composer,
		Dispatcher: h.dispatcher,
		Lock:       h.lock,
		Events:     h.events,
	}, scheduler.Specs{
		model.FrequencyImmediate: "@every 1h",
		model.FrequencyDaily:     "0 8 * * *",
		model.FrequencyWeekly:    "0 8 * * 1",
	}, func() time.Time { return cycleTime })
	return h
}

func dailyAlert(id string) model.Alert {
	return model.Alert{ID: id, UserID: "u1", Name: id, Keywords: []string{"go"},
		Frequency: model.FrequencyDaily, Active: true}
}

func someJobs() []model.JobListing {
	return []model.JobListing{{ID: "j1", Title: "Go Developer", Status: model.JobStatusOpen, CreatedAt: cycleTime.Add(-time.Hour)}}
}

// ── Cycles ─────────────────────────────────────────────────────────────────

func TestRunCycle_SuccessAdvancesWatermark(t *testing.T) {
	h := newHarness(dailyAlert("a1"))
	h.matcher.jobs["a1"] = someJobs()

	h.sched.RunCycle(context.Background(), model.FrequencyDaily)

	if len(h.dispatcher.sent) != 1 || h.dispatcher.sent[0] != "a1" {
		t.Fatalf("dispatched = %v, want [a1]", h.dispatcher.sent)
	}
	if got := h.alerts.watermarks["a1"]; !got.Equal(cycleTime) {
		t.Errorf("watermark = %v, want cycle time %v", got, cycleTime)
	}
	if len(h.events.sent) != 1 {
		t.Errorf("expected one digest event, got %v", h.events.sent)
	}
}

func TestRunCycle_DispatchFailureLeavesWatermark(t *testing.T) {
	prev := cycleTime.Add(-24 * time.Hour)
	alert := dailyAlert("a1")
	alert.LastSentAt = &prev

	h := newHarness(alert)
	h.matcher.jobs["a1"] = someJobs()
	h.dispatcher.fail["a1"] = true

	h.sched.RunCycle(context.Background(), model.FrequencyDaily)

	if _, moved := h.alerts.watermarks["a1"]; moved {
		t.Error("failed dispatch must not advance the watermark")
	}
	// The same window stays matchable: the matcher was asked with the old bound.
	if got := h.matcher.since["a1"]; got == nil || !got.Equal(prev) {
		t.Errorf("matcher since = %v, want %v", got, prev)
	}
}

func TestRunCycle_EmptyMatchesSkipsDispatch(t *testing.T) {
	h := newHarness(dailyAlert("a1")) // matcher returns nothing for a1

	h.sched.RunCycle(context.Background(), model.FrequencyDaily)

	if len(h.dispatcher.sent) != 0 {
		t.Errorf("dispatched = %v, want none", h.dispatcher.sent)
	}
	if _, moved := h.alerts.watermarks["a1"]; moved {
		t.Error("watermark must not move without a delivery")
	}
}

func TestRunCycle_OneAlertFailureDoesNotAbortCycle(t *testing.T) {
	h := newHarness(dailyAlert("a1"), dailyAlert("a2"))
	h.matcher.errs["a1"] = errors.New("store unavailable")
	h.matcher.jobs["a2"] = someJobs()

	h.sched.RunCycle(context.Background(), model.FrequencyDaily)

	if len(h.dispatcher.sent) != 1 || h.dispatcher.sent[0] != "a2" {
		t.Fatalf("dispatched = %v, want [a2] despite a1 failing", h.dispatcher.sent)
	}
}

func TestRunCycle_SkipsMissingOwnerWithoutMatching(t *testing.T) {
	alert := dailyAlert("a1")
	alert.UserID = "ghost"
	h := newHarness(alert)

	h.sched.RunCycle(context.Background(), model.FrequencyDaily)

	if len(h.matcher.called) != 0 {
		t.Error("matcher must not run for an alert with a missing owner")
	}
}

func TestRunCycle_SkipsOptedOutOwner(t *testing.T) {
	h := newHarness(dailyAlert("a1"))
	h.users.users["u1"] = model.User{ID: "u1", Email: "ana@example.com", AlertsEnabled: false}
	h.matcher.jobs["a1"] = someJobs()

	h.sched.RunCycle(context.Background(), model.FrequencyDaily)

	if len(h.dispatcher.sent) != 0 {
		t.Error("globally disabled alert email must suppress dispatch")
	}
}

func TestRunCycle_OnlyProcessesOwnFrequency(t *testing.T) {
	weekly := dailyAlert("a1")
	weekly.Frequency = model.FrequencyWeekly
	h := newHarness(weekly)
	h.matcher.jobs["a1"] = someJobs()

	h.sched.RunCycle(context.Background(), model.FrequencyDaily)

	if len(h.matcher.called) != 0 {
		t.Error("daily cycle must ignore weekly alerts")
	}
}

func TestRunCycle_SkipsWhenLockHeld(t *testing.T) {
	h := newHarness(dailyAlert("a1"))
	h.matcher.jobs["a1"] = someJobs()
	h.lock.held = true

	h.sched.RunCycle(context.Background(), model.FrequencyDaily)

	if len(h.matcher.called) != 0 {
		t.Error("a cycle must not run while another holds its lock")
	}
}

func TestRunCycle_ReleasesLock(t *testing.T) {
	h := newHarness(dailyAlert("a1"))
	h.sched.RunCycle(context.Background(), model.FrequencyDaily)

	if len(h.lock.acquired) != 1 || len(h.lock.released) != 1 {
		t.Errorf("lock acquired %v released %v, want one of each", h.lock.acquired, h.lock.released)
	}
}

func TestRunCycle_WatermarkIsMonotonic(t *testing.T) {
	h := newHarness(dailyAlert("a1"))
	h.matcher.jobs["a1"] = someJobs()
	h.alerts.watermarks = map[string]time.Time{"a1": cycleTime.Add(time.Hour)} // a later cycle already wrote

	h.sched.RunCycle(context.Background(), model.FrequencyDaily)

	if got := h.alerts.watermarks["a1"]; got.Before(cycleTime) {
		t.Errorf("watermark moved backwards: %v", got)
	}
}

// ── Manual test path ───────────────────────────────────────────────────────

func TestTestAlert_Uses30DayLookbackAndKeepsWatermark(t *testing.T) {
	prev := cycleTime.Add(-2 * time.Hour)
	alert := dailyAlert("a1")
	alert.LastSentAt = &prev

	h := newHarness(alert)
	h.matcher.jobs["a1"] = someJobs()

	matched, delivered, err := h.sched.TestAlert(context.Background(), alert)
	if err != nil {
		t.Fatalf("TestAlert: %v", err)
	}
	if matched != 1 || !delivered {
		t.Errorf("matched=%d delivered=%v, want 1/true", matched, delivered)
	}

	want := cycleTime.Add(-30 * 24 * time.Hour)
	if got := h.matcher.since["a1"]; got == nil || !got.Equal(want) {
		t.Errorf("test lookback = %v, want %v (not the alert watermark)", got, want)
	}
	if _, moved := h.alerts.watermarks["a1"]; moved {
		t.Error("the manual test path must never move the watermark")
	}
}

func TestTestAlert_NoMatchesMeansNoDispatch(t *testing.T) {
	h := newHarness(dailyAlert("a1"))

	matched, delivered, err := h.sched.TestAlert(context.Background(), dailyAlert("a1"))
	if err != nil {
		t.Fatalf("TestAlert: %v", err)
	}
	if matched != 0 || delivered {
		t.Errorf("matched=%d delivered=%v, want 0/false", matched, delivered)
	}
	if len(h.dispatcher.sent) != 0 {
		t.Error("dispatcher must not be invoked for zero matches")
	}
}
