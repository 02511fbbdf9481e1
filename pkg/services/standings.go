package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/matchpulse/core/pkg/database"
	"github.com/matchpulse/core/pkg/logger"
	"github.com/matchpulse/core/pkg/models"
)

// StandingsStore is the slice of the store the standings service needs.
type StandingsStore interface {
	GetTournament(ctx context.Context, tournamentID int64) (models.Tournament, error)
	UpsertStanding(ctx context.Context, arg database.UpsertStandingParams) error
}

// StandingsService refreshes the stored table of a tournament from the
// provider.
type StandingsService struct {
	store  StandingsStore
	logger *logger.Logger
}

func NewStandingsService(store StandingsStore) *StandingsService {
	return &StandingsService{
		store:  store,
		logger: logger.New("standings-service"),
	}
}

// Refresh fetches the tournament table and upserts every row. One row's
// failure does not stop the rest of the batch; failures are collected and
// returned aggregated.
func (s *StandingsService) Refresh(ctx context.Context, session FetchSession, tournamentID int64) error {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}

	payload, err := session.FetchStandings(ctx, tournament)
	if err != nil {
		return err
	}

	var errs []error
	for _, row := range payload.Rows {
		err := s.store.UpsertStanding(ctx, database.UpsertStandingParams{
			TournamentID:   tournamentID,
			TeamExternalID: row.TeamID,
			TeamName:       row.TeamName,
			Position:       row.Position,
			Points:         row.Points,
			Played:         row.Played,
			Wins:           row.Wins,
			Draws:          row.Draws,
			Losses:         row.Losses,
			GoalsFor:       row.GoalsFor,
			GoalsAgainst:   row.GoalsAgainst,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("team %s: %w", row.TeamID, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("standings refresh for tournament %d: %w", tournamentID, errors.Join(errs...))
	}

	s.logger.Info().
		Str("action", "standings_refreshed").
		Int64("tournament_id", tournamentID).
		Int("rows", len(payload.Rows)).
		Msg("Standings refreshed")

	return nil
}
