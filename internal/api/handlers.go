// Package api implements the HTTP surface for alert management.
//
// All routes expect an x-user-id header forwarded by the gateway.
//
// Routes:
//
//	POST   /alerts                → create alert
//	GET    /alerts                → list caller's alerts
//	GET    /alerts/matching-jobs  → deduped matches across caller's alerts
//	GET    /alerts/:id            → fetch one alert
//	PUT    /alerts/:id            → update criteria / toggle active
//	DELETE /alerts/:id            → delete alert
//	POST   /alerts/:id/test       → one-off test dispatch (30-day lookback)
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hiresphere/alert-service/internal/match"
	"hiresphere/alert-service/internal/model"
	"hiresphere/alert-service/internal/scheduler"
	"hiresphere/alert-service/internal/store"
)

// Handler holds shared dependencies.
type Handler struct {
	alerts  *store.AlertStore
	matcher *match.Matcher
	sched   *scheduler.Scheduler
}

// NewHandler returns a configured Handler.
func NewHandler(alerts *store.AlertStore, matcher *match.Matcher, sched *scheduler.Scheduler) *Handler {
	return &Handler{alerts: alerts, matcher: matcher, sched: sched}
}

// alertRequest is the JSON body for create and update.
type alertRequest struct {
	Name      string   `json:"name"`
	Keywords  []string `json:"keywords" binding:"required,min=1"`
	Locations []string `json:"locations"`
	JobTypes  []string `json:"jobTypes"`
	SalaryMin *int     `json:"salaryMin"`
	SalaryMax *int     `json:"salaryMax"`
	Frequency string   `json:"frequency" binding:"required,oneof=immediate daily weekly"`
	Active    *bool    `json:"active"`
}

func (r *alertRequest) toAlert(userID string) model.Alert {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return model.Alert{
		UserID:    userID,
		Name:      r.Name,
		Keywords:  r.Keywords,
		Locations: r.Locations,
		JobTypes:  r.JobTypes,
		SalaryMin: r.SalaryMin,
		SalaryMax: r.SalaryMax,
		Frequency: model.Frequency(r.Frequency),
		Active:    active,
	}
}

// createAlert handles POST /alerts.
func (h *Handler) createAlert(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert := req.toAlert(userID(c))
	if err := h.alerts.Create(c.Request.Context(), &alert); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

// listAlerts handles GET /alerts.
func (h *Handler) listAlerts(c *gin.Context) {
	alerts, err := h.alerts.ListByUser(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// getAlert handles GET /alerts/:id.
func (h *Handler) getAlert(c *gin.Context) {
	alert, err := h.alerts.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// updateAlert handles PUT /alerts/:id. The watermark is not touchable here.
func (h *Handler) updateAlert(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert := req.toAlert(userID(c))
	alert.ID = c.Param("id")
	if err := h.alerts.Update(c.Request.Context(), &alert); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// deleteAlert handles DELETE /alerts/:id.
func (h *Handler) deleteAlert(c *gin.Context) {
	if err := h.alerts.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// testAlert handles POST /alerts/:id/test — a one-off dispatch over the last
// 30 days that never moves the alert's watermark.
func (h *Handler) testAlert(c *gin.Context) {
	alert, err := h.alerts.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	matched, delivered, err := h.sched.TestAlert(c.Request.Context(), *alert)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matched": matched, "delivered": delivered})
}

// matchingJobs handles GET /alerts/matching-jobs: matches across the
// caller's active alerts, deduplicated by listing and re-sorted newest first.
func (h *Handler) matchingJobs(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	alerts, err := h.alerts.ListByUser(ctx, uid)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, aggregateMatches(ctx, h.matcher, alerts))
}

// jobFinder is the matcher slice aggregateMatches needs.
type jobFinder interface {
	FindMatches(ctx context.Context, alert model.Alert, since *time.Time, limit int) ([]model.JobListing, error)
}

// aggregateMatches collects matches across a user's alerts. Inactive alerts
// are never queried, matching the scheduler's treatment of the active flag.
// A failed query drops that alert's batch and keeps the rest.
func aggregateMatches(ctx context.Context, finder jobFinder, alerts []model.Alert) []model.JobListing {
	batches := make([][]model.JobListing, 0, len(alerts))
	for _, alert := range alerts {
		if !alert.Active {
			continue
		}
		jobs, err := finder.FindMatches(ctx, alert, alert.LastSentAt, match.AggregateLimit)
		if err != nil {
			slog.Error("matching-jobs query failed", "alertId", alert.ID, "userId", alert.UserID, "err", err)
			continue
		}
		batches = append(batches, jobs)
	}
	return match.Merge(match.AggregateLimit, batches...)
}

// userID returns the caller identity; requireUser guarantees it is set.
func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// respondError maps the store error taxonomy to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
	default:
		slog.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
