// Package model defines the typed records shared across the alert service.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Frequency controls which scheduled sweep processes an alert.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
)

// Frequencies lists every valid cadence, in sweep order.
var Frequencies = []Frequency{FrequencyImmediate, FrequencyDaily, FrequencyWeekly}

// ParseFrequency converts a raw string to a Frequency, returning an error
// for unknown values. Matching is case-insensitive.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(s))
	switch f {
	case FrequencyImmediate, FrequencyDaily, FrequencyWeekly:
		return f, nil
	}
	return "", fmt.Errorf("unknown alert frequency %q", s)
}

// Alert is a saved search profile owned by a job seeker. The scheduler only
// ever mutates LastSentAt; all other fields belong to the owner.
type Alert struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Name       string     `json:"name"`
	Keywords   []string   `json:"keywords"`
	Locations  []string   `json:"locations"`
	JobTypes   []string   `json:"jobTypes"`
	SalaryMin  *int       `json:"salaryMin"`
	SalaryMax  *int       `json:"salaryMax"`
	Frequency  Frequency  `json:"frequency"`
	Active     bool       `json:"active"`
	LastSentAt *time.Time `json:"lastSentAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// JobStatusOpen is the only listing status eligible for matching.
const JobStatusOpen = "open"

// JobListing is a posting as seen by the matcher. Read-only here — listings
// are owned by the employer-facing side of the platform.
type JobListing struct {
	ID           string    `json:"id"`
	EmployerID   string    `json:"employerId"`
	EmployerName string    `json:"employerName"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	Location     string    `json:"location"`
	JobType      string    `json:"jobType"`
	SalaryMin    int       `json:"salaryMin"`
	SalaryMax    int       `json:"salaryMax"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// User is the slice of the job-seeker profile the alert pipeline needs:
// where to send mail, whether the user wants it, and the profile fields fed
// into digest personalization.
type User struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	FullName      string   `json:"fullName"`
	AlertsEnabled bool     `json:"alertsEnabled"`
	Skills        []string `json:"skills"`
	Experience    string   `json:"experience"`
	Education     string   `json:"education"`
}
