// Package match implements the job-alert matching rule: a conjunctive
// filter over open listings where every clause is optional except the
// open-status and creation-time bounds.
//
// Keyword and location clauses are case-insensitive literal substring
// matches. They are evaluated with strings.Contains, never compiled into a
// pattern, so characters like '.', '*' or '(' in user input only ever match
// themselves.
package match

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"hiresphere/alert-service/internal/model"
)

const (
	// PerAlertLimit caps one alert's matches (digests, ad-hoc queries).
	PerAlertLimit = 10
	// AggregateLimit caps the merged "jobs matching any of my alerts" query.
	AggregateLimit = 20
)

// JobSource supplies the candidate window: open listings created after a
// lower bound, newest first, capped. Implemented by store.JobStore.
type JobSource interface {
	OpenJobsSince(ctx context.Context, since *time.Time, limit int) ([]model.JobListing, error)
}

// Matcher filters a JobSource's candidate window against alert criteria.
type Matcher struct {
	jobs      JobSource
	scanLimit int
}

// New returns a Matcher that fetches at most scanLimit candidates per query.
func New(jobs JobSource, scanLimit int) *Matcher {
	return &Matcher{jobs: jobs, scanLimit: scanLimit}
}

// FindMatches returns up to limit open listings matching the alert, created
// strictly after since (all open listings when since is nil), newest first.
// A failed source query is returned as an error so callers can tell it apart
// from an empty result; the scheduler logs it and skips the alert either way.
func (m *Matcher) FindMatches(ctx context.Context, alert model.Alert, since *time.Time, limit int) ([]model.JobListing, error) {
	candidates, err := m.jobs.OpenJobsSince(ctx, since, m.scanLimit)
	if err != nil {
		return nil, fmt.Errorf("load candidates for alert %s: %w", alert.ID, err)
	}

	matched := make([]model.JobListing, 0, limit)
	for _, job := range candidates {
		if !Matches(alert, since, job) {
			continue
		}
		matched = append(matched, job)
		if len(matched) == limit {
			break
		}
	}
	return matched, nil
}

// Matches reports whether a single listing satisfies every populated clause
// of the alert. Empty keywords, locations and job types make the alert a
// catch-all over new open postings.
func Matches(alert model.Alert, since *time.Time, job model.JobListing) bool {
	if job.Status != model.JobStatusOpen {
		return false
	}
	if since != nil && !job.CreatedAt.After(*since) {
		return false
	}
	if !matchesAny(alert.Keywords, job.Title, job.Description, job.Requirements) {
		return false
	}
	if !matchesAny(alert.Locations, job.Location) {
		return false
	}
	if !matchesType(alert.JobTypes, job.JobType) {
		return false
	}
	return matchesSalary(alert, job)
}

// matchesAny reports whether any term appears (case-insensitive, literal
// substring) in at least one of the fields. Each field is tested on its own:
// a multi-word term must occur inside a single field, never across a field
// boundary. An empty term list always matches.
func matchesAny(terms []string, fields ...string) bool {
	if len(terms) == 0 {
		return true
	}
	lowered := make([]string, len(fields))
	for i, f := range fields {
		lowered[i] = strings.ToLower(f)
	}
	for _, term := range terms {
		if term == "" {
			continue
		}
		t := strings.ToLower(term)
		for _, f := range lowered {
			if strings.Contains(f, t) {
				return true
			}
		}
	}
	return false
}

// matchesType requires a case-insensitive exact match against one of the
// configured job types. An empty list always matches.
func matchesType(types []string, jobType string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if strings.EqualFold(t, jobType) {
			return true
		}
	}
	return false
}

// matchesSalary applies the optional bounds: the listing's minimum must
// reach the alert's minimum, and when a maximum is configured the listing's
// maximum must not exceed it.
func matchesSalary(alert model.Alert, job model.JobListing) bool {
	if alert.SalaryMin == nil && alert.SalaryMax == nil {
		return true
	}
	min := 0
	if alert.SalaryMin != nil {
		min = *alert.SalaryMin
	}
	if job.SalaryMin < min {
		return false
	}
	if alert.SalaryMax != nil && job.SalaryMax > *alert.SalaryMax {
		return false
	}
	return true
}

// Merge deduplicates matches gathered across several alerts by listing ID,
// re-sorts newest first, and caps the result. The matcher itself never
// deduplicates; aggregation callers own that step.
func Merge(limit int, batches ...[]model.JobListing) []model.JobListing {
	seen := make(map[string]bool)
	merged := make([]model.JobListing, 0)
	for _, batch := range batches {
		for _, job := range batch {
			if seen[job.ID] {
				continue
			}
			seen[job.ID] = true
			merged = append(merged, job)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
