package services

import (
	"context"
	"fmt"
	"time"

	"github.com/matchpulse/core/internal/config"
	"github.com/matchpulse/core/pkg/database"
	"github.com/matchpulse/core/pkg/logger"
	"github.com/matchpulse/core/pkg/models"
)

// MatchPollStore is the slice of the store the poller needs.
type MatchPollStore interface {
	ListDueMatches(ctx context.Context, arg database.ListDueMatchesParams) ([]models.Match, error)
	MarkMatchChecked(ctx context.Context, matchID int64) error
	CountMatchCheckStates(ctx context.Context, arg database.CountMatchCheckStatesParams) (models.PollerStats, error)
}

// MatchPoller selects matches currently eligible for a freshness check. A
// match is due once it plausibly started (kickoff at least StartBuffer ago)
// and has not been checked within Cooldown. Results are capped per call and
// ordered oldest kickoff first so a backlog drains fairly.
type MatchPoller struct {
	store       MatchPollStore
	startBuffer time.Duration
	cooldown    time.Duration
	batchSize   int
	now         func() time.Time
	logger      *logger.Logger
}

func NewMatchPoller(store MatchPollStore, cfg config.SyncConfig) *MatchPoller {
	return &MatchPoller{
		store:       store,
		startBuffer: cfg.StartBuffer,
		cooldown:    cfg.Cooldown,
		batchSize:   cfg.BatchSize,
		now:         time.Now,
		logger:      logger.New("match-poller"),
	}
}

// FindDueMatches returns the bounded, ordered set of matches due for a
// freshness check. Pure read, no side effects.
func (p *MatchPoller) FindDueMatches(ctx context.Context) ([]models.Match, error) {
	now := p.now()
	due, err := p.store.ListDueMatches(ctx, database.ListDueMatchesParams{
		StartedBefore: now.Add(-p.startBuffer),
		CheckedBefore: now.Add(-p.cooldown),
		Limit:         int32(p.batchSize),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find due matches: %w", err)
	}

	p.logger.Debug().
		Str("action", "poll").
		Int("due_count", len(due)).
		Int("batch_size", p.batchSize).
		Msg("Selected due matches")

	return due, nil
}

// MarkChecked stamps the match's freshness check. Callers invoke this exactly
// once per attempt, success or failure, so a permanently failing match backs
// off to the cooldown like a healthy one instead of being retried every tick.
func (p *MatchPoller) MarkChecked(ctx context.Context, matchID int64) error {
	return p.store.MarkMatchChecked(ctx, matchID)
}

// Stats returns diagnostic counters over the open backlog.
func (p *MatchPoller) Stats(ctx context.Context) (models.PollerStats, error) {
	now := p.now()
	stats, err := p.store.CountMatchCheckStates(ctx, database.CountMatchCheckStatesParams{
		StartedBefore: now.Add(-p.startBuffer),
		CheckedBefore: now.Add(-p.cooldown),
	})
	if err != nil {
		return models.PollerStats{}, fmt.Errorf("failed to count poller stats: %w", err)
	}
	return stats, nil
}
