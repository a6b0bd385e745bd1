// Package digest builds the transient notification payload for one alert's
// matches. A digest lives for a single scheduler cycle: composed, handed to
// the dispatcher, discarded.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hiresphere/alert-service/internal/model"
)

// TextGenerator produces a short personalization note for a digest. It must
// be treated as unreliable: callers swallow every failure and send the
// digest without the note. Substitutable with a no-op in tests.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NoopGenerator satisfies TextGenerator without calling anything.
type NoopGenerator struct{}

// Generate always returns an empty note.
func (NoopGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "", nil
}

// JobSummary is one matched listing as rendered in the digest email.
type JobSummary struct {
	Title    string
	Employer string
	Location string
	JobType  string
	Salary   string
	URL      string
}

// Digest is the notification payload for one alert: recipient, matched job
// summaries, and an optional personalization note.
type Digest struct {
	Recipient       model.User
	AlertID         string
	AlertName       string
	Jobs            []JobSummary
	Personalization string
}

// Composer formats matched jobs into a Digest and requests the optional
// personalization note from the TextGenerator.
type Composer struct {
	gen       TextGenerator
	baseURL   string
	aiTimeout time.Duration
}

// NewComposer returns a Composer. gen may be a NoopGenerator; baseURL is the
// site root used for deep links.
func NewComposer(gen TextGenerator, baseURL string, aiTimeout time.Duration) *Composer {
	return &Composer{gen: gen, baseURL: strings.TrimRight(baseURL, "/"), aiTimeout: aiTimeout}
}

// Compose builds the digest for one alert's matches. Returns nil when jobs
// is empty — a digest is never produced for zero matches. The personalization
// call is best-effort: any error or empty response just drops the note.
func (c *Composer) Compose(ctx context.Context, recipient model.User, alert model.Alert, jobs []model.JobListing) *Digest {
	if len(jobs) == 0 {
		return nil
	}

	summaries := make([]JobSummary, 0, len(jobs))
	for _, j := range jobs {
		summaries = append(summaries, JobSummary{
			Title:    j.Title,
			Employer: j.EmployerName,
			Location: j.Location,
			JobType:  j.JobType,
			Salary:   FormatSalary(j.SalaryMin, j.SalaryMax),
			URL:      fmt.Sprintf("%s/jobs/%s", c.baseURL, j.ID),
		})
	}

	d := &Digest{
		Recipient: recipient,
		AlertID:   alert.ID,
		AlertName: alert.Name,
		Jobs:      summaries,
	}

	aiCtx, cancel := context.WithTimeout(ctx, c.aiTimeout)
	defer cancel()

	note, err := c.gen.Generate(aiCtx, buildPrompt(recipient, summaries))
	if err != nil {
		slog.Warn("digest personalization failed",
			"alertId", alert.ID, "userId", recipient.ID, "err", err)
		return d
	}
	d.Personalization = strings.TrimSpace(note)
	return d
}

// buildPrompt assembles the plain-text prompt for the personalization note.
// The response is opaque prose — it is never parsed, only embedded.
func buildPrompt(recipient model.User, jobs []JobSummary) string {
	var b strings.Builder
	b.WriteString("You are a career assistant for a job board. ")
	b.WriteString("Write a short note (at most 2 sentences per job, plain text, no markdown) ")
	b.WriteString("telling the candidate why these new openings may fit their profile.\n\n")

	b.WriteString("Candidate profile:\n")
	if len(recipient.Skills) > 0 {
		fmt.Fprintf(&b, "- Skills: %s\n", strings.Join(recipient.Skills, ", "))
	}
	if recipient.Experience != "" {
		fmt.Fprintf(&b, "- Experience: %s\n", recipient.Experience)
	}
	if recipient.Education != "" {
		fmt.Fprintf(&b, "- Education: %s\n", recipient.Education)
	}

	b.WriteString("\nMatched openings:\n")
	for _, j := range jobs {
		fmt.Fprintf(&b, "- %s at %s (%s, %s, %s)\n",
			j.Title, j.Employer, j.Location, j.JobType, j.Salary)
	}
	return b.String()
}

// FormatSalary renders a listing's salary range for display.
func FormatSalary(min, max int) string {
	switch {
	case min == 0 && max == 0:
		return "not specified"
	case max == 0 || max == min:
		return fmt.Sprintf("$%d", min)
	default:
		return fmt.Sprintf("$%d – $%d", min, max)
	}
}
