package model

import "strings"

// maxNameLen bounds the auto-generated alert name.
const maxNameLen = 60

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// ValidateAlert checks the invariants an alert must satisfy at creation and
// update time. Keywords are mandatory; locations, job types and salary
// bounds are optional refinements.
func ValidateAlert(a *Alert) error {
	a.Keywords = trimAll(a.Keywords)
	a.Locations = trimAll(a.Locations)
	a.JobTypes = trimAll(a.JobTypes)

	if len(a.Keywords) == 0 {
		return &ValidationError{Msg: "alert must have at least one keyword"}
	}
	if _, err := ParseFrequency(string(a.Frequency)); err != nil {
		return &ValidationError{Msg: err.Error()}
	}
	if a.SalaryMin != nil && *a.SalaryMin < 0 {
		return &ValidationError{Msg: "salaryMin must not be negative"}
	}
	if a.SalaryMin != nil && a.SalaryMax != nil && *a.SalaryMax < *a.SalaryMin {
		return &ValidationError{Msg: "salaryMax must not be below salaryMin"}
	}
	if strings.TrimSpace(a.Name) == "" {
		a.Name = DefaultName(a.Keywords)
	}
	return nil
}

// DefaultName builds a display label from the keyword list, truncated with
// an ellipsis when it would exceed maxNameLen.
func DefaultName(keywords []string) string {
	name := strings.Join(keywords, ", ")
	if runes := []rune(name); len(runes) > maxNameLen {
		name = string(runes[:maxNameLen-1]) + "…"
	}
	return name
}

// trimAll drops empty and whitespace-only entries.
func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
