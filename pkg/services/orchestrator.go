package services

import (
	"context"
	"time"

	"github.com/matchpulse/core/pkg/database"
	"github.com/matchpulse/core/pkg/logger"
	"github.com/matchpulse/core/pkg/models"
	"github.com/matchpulse/core/pkg/utils"
)

// FetchSession is the exclusive handle over the provider fetch gateway for
// the duration of one pass.
type FetchSession interface {
	FetchMatch(ctx context.Context, tournament models.Tournament, match models.Match) (*models.ProviderMatch, error)
	FetchStandings(ctx context.Context, tournament models.Tournament) (*models.ProviderStandings, error)
	Close()
}

// SessionSource hands out the exclusive fetch session.
type SessionSource interface {
	Acquire(ctx context.Context) (FetchSession, error)
}

// OrchestratorStore is the slice of the store the orchestrator needs.
type OrchestratorStore interface {
	GetTournament(ctx context.Context, tournamentID int64) (models.Tournament, error)
	UpsertMatch(ctx context.Context, arg database.UpsertMatchParams) (models.Match, error)
}

// StandingsRefresher refreshes the table of one tournament.
type StandingsRefresher interface {
	Refresh(ctx context.Context, session FetchSession, tournamentID int64) error
}

// Orchestrator drives the match refresh pass: poll due matches, refresh each
// one with per-item isolation, and fan out one standings refresh per
// tournament whose matches transitioned into ended during the pass.
//
// Matches are processed strictly sequentially in poller order. The session's
// built-in pause keeps the request rate within what the provider tolerates;
// throughput is deliberately sacrificed for rate discipline.
type Orchestrator struct {
	poller    *MatchPoller
	sessions  SessionSource
	store     OrchestratorStore
	standings StandingsRefresher
	logger    *logger.Logger
}

func NewOrchestrator(poller *MatchPoller, sessions SessionSource, store OrchestratorStore, standings StandingsRefresher) *Orchestrator {
	return &Orchestrator{
		poller:    poller,
		sessions:  sessions,
		store:     store,
		standings: standings,
		logger:    logger.New("match-orchestrator"),
	}
}

// Run executes one pass over all currently due matches. A single match's
// failure never aborts the loop; it is logged, counted and the loop moves on.
func (o *Orchestrator) Run(ctx context.Context) (models.PassSummary, error) {
	start := time.Now()
	var summary models.PassSummary

	due, err := o.poller.FindDueMatches(ctx)
	if err != nil {
		return summary, err
	}
	if len(due) == 0 {
		o.logger.Debug().Str("action", "pass_noop").Msg("No due matches, skipping pass")
		return summary, nil
	}

	session, err := o.sessions.Acquire(ctx)
	if err != nil {
		return summary, err
	}
	defer session.Close()

	// Tournaments whose matches transitioned into ended this pass. A set, so
	// repeats collapse to one refresh.
	refresh := make(map[int64]struct{})
	var refreshOrder []int64

	for _, match := range due {
		summary.Processed++

		endedNow, err := o.refreshMatch(ctx, session, match)
		if err != nil {
			summary.Failed++
			o.logger.WithMatch(match.ID, match.ExternalID).Error().
				Err(err).
				Str("action", "match_refresh_failed").
				Msg("Failed to refresh match, continuing pass")
		} else {
			summary.Successful++
			if endedNow {
				if _, seen := refresh[match.TournamentID]; !seen {
					refresh[match.TournamentID] = struct{}{}
					refreshOrder = append(refreshOrder, match.TournamentID)
				}
			}
		}

		// Stamp the check in both branches so a failing match respects the
		// cooldown. A failed stamp must not crash the pass either.
		if err := o.poller.MarkChecked(ctx, match.ID); err != nil {
			o.logger.Error().
				Err(err).
				Int64("match_id", match.ID).
				Str("action", "mark_checked_failed").
				Msg("Failed to stamp freshness check")
		}
	}

	for _, tournamentID := range refreshOrder {
		if err := o.standings.Refresh(ctx, session, tournamentID); err != nil {
			o.logger.Error().
				Err(err).
				Int64("tournament_id", tournamentID).
				Str("action", "standings_refresh_failed").
				Msg("Failed to refresh standings, continuing with next tournament")
			continue
		}
		summary.StandingsRefreshed++
	}

	o.logger.LogPassSummary(summary.Processed, summary.Successful, summary.Failed,
		summary.StandingsRefreshed, time.Since(start))

	return summary, nil
}

// refreshMatch fetches and upserts one match. It reports whether the match
// transitioned into ended with this refresh (edge-triggered: comparing
// previous against new status, so already-ended matches revisited later do
// not fire again).
func (o *Orchestrator) refreshMatch(ctx context.Context, session FetchSession, match models.Match) (bool, error) {
	tournament, err := o.store.GetTournament(ctx, match.TournamentID)
	if err != nil {
		return false, err
	}

	payload, err := session.FetchMatch(ctx, tournament, match)
	if err != nil {
		return false, err
	}

	updated, err := o.store.UpsertMatch(ctx, mapProviderMatch(match, payload))
	if err != nil {
		return false, err
	}

	return !match.HasEnded() && updated.HasEnded(), nil
}

// mapProviderMatch normalizes the raw provider payload onto the stored match,
// keeping the local identity and team references.
func mapProviderMatch(match models.Match, payload *models.ProviderMatch) database.UpsertMatchParams {
	arg := database.UpsertMatchParams{
		ExternalID:   match.ExternalID,
		Provider:     match.Provider,
		TournamentID: match.TournamentID,
		RoundSlug:    match.RoundSlug,
		HomeTeamID:   match.HomeTeamID,
		AwayTeamID:   match.AwayTeamID,
		HomeScore:    payload.HomeScore,
		AwayScore:    payload.AwayScore,
		Date:         match.Date,
		Status:       models.NormalizeProviderStatus(payload.Status),
	}
	if payload.Round != "" {
		arg.RoundSlug = utils.NormalizeSlug(payload.Round)
	}
	if payload.Date != nil {
		date := time.Unix(*payload.Date, 0).UTC()
		arg.Date = &date
	}
	return arg
}
