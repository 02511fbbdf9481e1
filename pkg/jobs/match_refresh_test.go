package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/matchpulse/core/pkg/models"
)

type mockOrchestrator struct {
	summary models.PassSummary
	err     error
	runs    int
}

func (m *mockOrchestrator) Run(context.Context) (models.PassSummary, error) {
	m.runs++
	return m.summary, m.err
}

func TestMatchRefreshJobMetadata(t *testing.T) {
	job := NewMatchRefreshJob(&mockOrchestrator{})

	if job.Name() != "match_refresh" {
		t.Errorf("Name() = %q, want %q", job.Name(), "match_refresh")
	}
	if job.Schedule() != "*/10 * * * *" {
		t.Errorf("Schedule() = %q, want %q", job.Schedule(), "*/10 * * * *")
	}
}

func TestMatchRefreshJobExecute(t *testing.T) {
	orchestrator := &mockOrchestrator{
		summary: models.PassSummary{Processed: 5, Successful: 4, Failed: 1, StandingsRefreshed: 2},
	}
	job := NewMatchRefreshJob(orchestrator)

	if err := job.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if orchestrator.runs != 1 {
		t.Errorf("Expected exactly one pass, got %d", orchestrator.runs)
	}
}

func TestMatchRefreshJobPropagatesPassError(t *testing.T) {
	passErr := errors.New("database unavailable")
	job := NewMatchRefreshJob(&mockOrchestrator{err: passErr})

	err := job.Execute(context.Background())
	if !errors.Is(err, passErr) {
		t.Errorf("Expected pass error to propagate, got %v", err)
	}
}
