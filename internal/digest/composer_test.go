package digest_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hiresphere/alert-service/internal/digest"
	"hiresphere/alert-service/internal/model"
)

// fakeGenerator records the prompt it was given and returns canned output.
type fakeGenerator struct {
	note   string
	err    error
	prompt string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.note, g.err
}

func testUser() model.User {
	return model.User{
		ID:         "u1",
		Email:      "ana@example.com",
		FullName:   "Ana",
		Skills:     []string{"Go", "PostgreSQL"},
		Experience: "5 years backend",
	}
}

func testAlert() model.Alert {
	return model.Alert{ID: "a1", UserID: "u1", Name: "go jobs"}
}

func testJobs() []model.JobListing {
	return []model.JobListing{{
		ID:           "j1",
		Title:        "Go Developer",
		EmployerName: "Acme",
		Location:     "Berlin",
		JobType:      "full-time",
		SalaryMin:    60000,
		SalaryMax:    90000,
		Status:       model.JobStatusOpen,
		CreatedAt:    time.Now(),
	}}
}

func TestCompose_EmptyMatchesReturnsNil(t *testing.T) {
	c := digest.NewComposer(digest.NoopGenerator{}, "https://example.com", time.Second)
	if got := c.Compose(context.Background(), testUser(), testAlert(), nil); got != nil {
		t.Fatal("Compose with zero matches must return nil")
	}
}

func TestCompose_BuildsSummariesAndDeepLinks(t *testing.T) {
	c := digest.NewComposer(digest.NoopGenerator{}, "https://example.com/", time.Second)
	dg := c.Compose(context.Background(), testUser(), testAlert(), testJobs())
	if dg == nil {
		t.Fatal("Compose returned nil for non-empty matches")
	}
	if dg.AlertID != "a1" || dg.AlertName != "go jobs" {
		t.Errorf("alert fields not carried: %+v", dg)
	}
	if len(dg.Jobs) != 1 {
		t.Fatalf("got %d summaries, want 1", len(dg.Jobs))
	}
	s := dg.Jobs[0]
	if s.Title != "Go Developer" || s.Employer != "Acme" {
		t.Errorf("summary fields wrong: %+v", s)
	}
	if s.URL != "https://example.com/jobs/j1" {
		t.Errorf("deep link = %q", s.URL)
	}
	if s.Salary != "$60000 – $90000" {
		t.Errorf("salary = %q", s.Salary)
	}
}

func TestCompose_PersonalizationIsIncluded(t *testing.T) {
	gen := &fakeGenerator{note: "  These roles fit your Go background.  "}
	c := digest.NewComposer(gen, "https://example.com", time.Second)

	dg := c.Compose(context.Background(), testUser(), testAlert(), testJobs())
	if dg.Personalization != "These roles fit your Go background." {
		t.Errorf("personalization = %q", dg.Personalization)
	}

	// The prompt carries the profile and the matched openings, nothing is
	// ever parsed back out of the response.
	for _, want := range []string{"Go, PostgreSQL", "5 years backend", "Go Developer", "Acme"} {
		if !strings.Contains(gen.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCompose_GeneratorFailureIsSwallowed(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	c := digest.NewComposer(gen, "https://example.com", time.Second)

	dg := c.Compose(context.Background(), testUser(), testAlert(), testJobs())
	if dg == nil {
		t.Fatal("generator failure must not suppress the digest")
	}
	if dg.Personalization != "" {
		t.Errorf("personalization should be empty on failure, got %q", dg.Personalization)
	}
}

func TestFormatSalary(t *testing.T) {
	cases := []struct {
		min, max int
		want     string
	}{
		{0, 0, "not specified"},
		{70000, 0, "$70000"},
		{70000, 70000, "$70000"},
		{60000, 90000, "$60000 – $90000"},
	}
	for _, c := range cases {
		if got := digest.FormatSalary(c.min, c.max); got != c.want {
			t.Errorf("FormatSalary(%d, %d) = %q, want %q", c.min, c.max, got, c.want)
		}
	}
}
