// Package notify turns a composed digest into an outbound email and records
// the delivery outcome.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hiresphere/alert-service/internal/digest"
	"hiresphere/alert-service/internal/mail"
	"hiresphere/alert-service/internal/metrics"
	"hiresphere/alert-service/internal/model"
)

// Dispatcher sends digests through a Mailer. It never lets a delivery error
// escape: the boolean result is the whole contract, and only a true result
// lets the scheduler advance an alert's watermark.
type Dispatcher struct {
	mailer  mail.Mailer
	timeout time.Duration
}

// NewDispatcher returns a Dispatcher bounding each send with timeout.
func NewDispatcher(mailer mail.Mailer, timeout time.Duration) *Dispatcher {
	return &Dispatcher{mailer: mailer, timeout: timeout}
}

// Send delivers the digest to its recipient. Returns false on any failure;
// no retry happens here — an unadvanced watermark makes the next scheduled
// cycle pick the same jobs up again.
func (d *Dispatcher) Send(ctx context.Context, recipient model.User, dg *digest.Digest) bool {
	subject := fmt.Sprintf("%d new job match(es) for %q", len(dg.Jobs), dg.AlertName)

	body, err := renderHTML(dg)
	if err != nil {
		slog.Error("digest render failed",
			"alertId", dg.AlertID, "userId", recipient.ID, "err", err)
		metrics.DigestsTotal.WithLabelValues("failed").Inc()
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.mailer.Send(sendCtx, recipient.Email, subject, body); err != nil {
		slog.Error("digest delivery failed",
			"alertId", dg.AlertID, "userId", recipient.ID, "to", recipient.Email, "err", err)
		metrics.DigestsTotal.WithLabelValues("failed").Inc()
		return false
	}

	metrics.DigestsTotal.WithLabelValues("sent").Inc()
	return true
}
