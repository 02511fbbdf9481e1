package jobs

import (
	"context"
	"fmt"

	"github.com/matchpulse/core/pkg/logger"
	"github.com/matchpulse/core/pkg/models"
)

// MatchRefreshRunner runs one orchestrator pass over the due matches.
type MatchRefreshRunner interface {
	Run(ctx context.Context) (models.PassSummary, error)
}

type MatchRefreshJob struct {
	orchestrator MatchRefreshRunner
}

func NewMatchRefreshJob(orchestrator MatchRefreshRunner) Job {
	return &MatchRefreshJob{orchestrator: orchestrator}
}

func (j *MatchRefreshJob) Name() string {
	return "match_refresh"
}

func (j *MatchRefreshJob) Execute(ctx context.Context) error {
	log := logger.WithContext(ctx, "match-refresh")

	summary, err := j.orchestrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("match refresh pass failed: %w", err)
	}

	log.Info().
		Str("action", "pass_summary").
		Int("processed", summary.Processed).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Int("standings_refreshed", summary.StandingsRefreshed).
		Msg("Match refresh pass finished")

	return nil
}

// Schedule returns the cron schedule for this job. Matches the poller
// cooldown so a healthy backlog is drained one batch per tick.
func (j *MatchRefreshJob) Schedule() string {
	return "*/10 * * * *"
}
