package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matchpulse/core/internal/config"
	"github.com/matchpulse/core/pkg/database"
	"github.com/matchpulse/core/pkg/logger"
	"github.com/matchpulse/core/pkg/models"
)

// TriggerCreator is the scheduling backend contract: register one timed
// trigger and return the backend's handle for it.
type TriggerCreator interface {
	CreateTrigger(ctx context.Context, name, expression string, startAt *time.Time, payload json.RawMessage) (string, error)
}

// KeyLocker serializes schedule creation per key. Two concurrent planning
// runs could otherwise both pass the duplicate check before either inserts;
// the unique constraint on schedule_id is the backstop when no locker is
// configured.
type KeyLocker interface {
	AcquireLock(ctx context.Context, key string) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// PlannerStore is the slice of the store the planner needs.
type PlannerStore interface {
	ListUpcomingOpenMatches(ctx context.Context, arg database.ListUpcomingOpenMatchesParams) ([]models.Match, error)
	GetTournament(ctx context.Context, tournamentID int64) (models.Tournament, error)
	ListKnockoutTournaments(ctx context.Context) ([]models.Tournament, error)
}

// SchedulePlanner decides which external triggers are needed and walks each
// candidate through the registry's dedup and bookkeeping contract: check for
// a duplicate, record the pending row, create the backend trigger, then
// report the outcome back to the registry. One candidate's failure never
// stops the batch.
type SchedulePlanner struct {
	registry    *JobRegistry
	backend     TriggerCreator
	store       PlannerStore
	locker      KeyLocker
	environment string
	horizon     time.Duration
	now         func() time.Time
	logger      *logger.Logger
}

func NewSchedulePlanner(registry *JobRegistry, backend TriggerCreator, store PlannerStore, locker KeyLocker, cfg *config.Config) *SchedulePlanner {
	return &SchedulePlanner{
		registry:    registry,
		backend:     backend,
		store:       store,
		locker:      locker,
		environment: cfg.Environment,
		horizon:     cfg.Sync.PlanHorizon,
		now:         time.Now,
		logger:      logger.New("schedule-planner"),
	}
}

// PlanMatchEndSchedules creates one-shot end-of-match triggers for every open
// match kicking off within the planning horizon.
func (p *SchedulePlanner) PlanMatchEndSchedules(ctx context.Context) (models.PlanSummary, error) {
	var summary models.PlanSummary
	now := p.now()

	matches, err := p.store.ListUpcomingOpenMatches(ctx, database.ListUpcomingOpenMatchesParams{
		From: now,
		To:   now.Add(p.horizon),
	})
	if err != nil {
		return summary, err
	}

	for _, match := range matches {
		summary.Candidates++

		tournament, err := p.store.GetTournament(ctx, match.TournamentID)
		if err != nil {
			summary.Failed++
			p.logger.Error().
				Err(err).
				Int64("match_id", match.ID).
				Str("action", "tournament_lookup_failed").
				Msg("Failed to resolve tournament for schedule candidate")
			continue
		}

		req, err := models.NewMatchEndSchedule(tournament, match, p.environment)
		if err != nil {
			summary.Failed++
			p.logger.Error().
				Err(err).
				Int64("match_id", match.ID).
				Str("action", "schedule_request_invalid").
				Msg("Failed to build schedule request")
			continue
		}

		p.create(ctx, req, &summary)
	}

	p.logger.Info().
		Str("action", "plan_complete").
		Int("candidates", summary.Candidates).
		Int("created", summary.Created).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("Match end schedule planning completed")

	return summary, nil
}

// PlanKnockoutSchedules creates the recurring knockout discovery trigger for
// every tournament tracking knockout rounds.
func (p *SchedulePlanner) PlanKnockoutSchedules(ctx context.Context) (models.PlanSummary, error) {
	var summary models.PlanSummary

	tournaments, err := p.store.ListKnockoutTournaments(ctx)
	if err != nil {
		return summary, err
	}

	for _, tournament := range tournaments {
		summary.Candidates++

		req, err := models.NewKnockoutSchedule(tournament, p.environment)
		if err != nil {
			summary.Failed++
			p.logger.Error().
				Err(err).
				Int64("tournament_id", tournament.ID).
				Str("action", "schedule_request_invalid").
				Msg("Failed to build knockout schedule request")
			continue
		}

		p.create(ctx, req, &summary)
	}

	return summary, nil
}

// create walks one request through dedup, registry bookkeeping and the
// backend call. Outcomes are tallied into summary; errors are terminal for
// the single candidate only.
func (p *SchedulePlanner) create(ctx context.Context, req models.ScheduleRequest, summary *models.PlanSummary) {
	log := p.logger.WithSchedule(req.ScheduleID)

	if p.locker != nil {
		acquired, err := p.locker.AcquireLock(ctx, "schedule:"+req.ScheduleID)
		if err != nil {
			summary.Failed++
			log.Error().Err(err).Str("action", "schedule_lock_failed").Msg("Failed to acquire schedule lock")
			return
		}
		if !acquired {
			// Another run is creating this exact schedule right now.
			summary.Skipped++
			return
		}
		defer func() {
			if err := p.locker.ReleaseLock(ctx, "schedule:"+req.ScheduleID); err != nil {
				log.Error().Err(err).Str("action", "schedule_unlock_failed").Msg("Failed to release schedule lock")
			}
		}()
	}

	duplicate, err := p.registry.IsDuplicate(ctx, req.ScheduleID)
	if err != nil {
		summary.Failed++
		log.Error().Err(err).Str("action", "dedup_check_failed").Msg("Failed to check for duplicate schedule")
		return
	}
	if duplicate {
		// The whole creation is skipped silently: the trigger already exists.
		summary.Skipped++
		return
	}

	if _, err := p.registry.RecordCreation(ctx, req); err != nil {
		summary.Failed++
		log.Error().Err(err).Str("action", "record_creation_failed").Msg("Failed to record schedule creation")
		return
	}

	handle, err := p.backend.CreateTrigger(ctx, req.ScheduleID, req.Expression, req.StartAt, req.TargetInput)
	if err != nil {
		summary.Failed++
		log.Error().Err(err).Str("action", "trigger_creation_failed").Msg("Scheduling backend rejected trigger")
		if markErr := p.registry.MarkFailed(ctx, req.ScheduleID, err); markErr != nil {
			log.Error().Err(markErr).Str("action", "mark_failed_failed").Msg("Failed to record trigger failure")
		}
		return
	}

	if err := p.registry.MarkScheduled(ctx, req.ScheduleID, handle, p.now()); err != nil {
		summary.Failed++
		log.Error().Err(err).Str("action", "mark_scheduled_failed").Msg("Failed to record scheduled state")
		if markErr := p.registry.MarkFailed(ctx, req.ScheduleID, err); markErr != nil {
			log.Error().Err(markErr).Str("action", "mark_failed_failed").Msg("Failed to record bookkeeping failure")
		}
		return
	}

	summary.Created++
}
