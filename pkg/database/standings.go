package database

import (
	"context"
	"fmt"

	"github.com/matchpulse/core/pkg/models"
)

type UpsertStandingParams struct {
	TournamentID   int64
	TeamExternalID string
	TeamName       string
	Position       int32
	Points         int32
	Played         int32
	Wins           int32
	Draws          int32
	Losses         int32
	GoalsFor       int32
	GoalsAgainst   int32
}

// UpsertStanding merges one table row keyed by (tournament_id,
// team_external_id), last write wins.
func (q *Queries) UpsertStanding(ctx context.Context, arg UpsertStandingParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO standings (
			tournament_id, team_external_id, team_name, position, points,
			played, wins, draws, losses, goals_for, goals_against
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (tournament_id, team_external_id) DO UPDATE SET
			team_name = EXCLUDED.team_name,
			position = EXCLUDED.position,
			points = EXCLUDED.points,
			played = EXCLUDED.played,
			wins = EXCLUDED.wins,
			draws = EXCLUDED.draws,
			losses = EXCLUDED.losses,
			goals_for = EXCLUDED.goals_for,
			goals_against = EXCLUDED.goals_against,
			updated_at = now()`,
		arg.TournamentID, arg.TeamExternalID, arg.TeamName, arg.Position,
		arg.Points, arg.Played, arg.Wins, arg.Draws, arg.Losses,
		arg.GoalsFor, arg.GoalsAgainst,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert standing for team %s in tournament %d: %w",
			arg.TeamExternalID, arg.TournamentID, err)
	}
	return nil
}

// ListStandings returns the current table for one tournament.
func (q *Queries) ListStandings(ctx context.Context, tournamentID int64) ([]models.Standing, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, tournament_id, team_external_id, team_name, position,
		       points, played, wins, draws, losses, goals_for, goals_against,
		       updated_at
		FROM standings
		WHERE tournament_id = $1
		ORDER BY position ASC`,
		tournamentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	var standings []models.Standing
	for rows.Next() {
		var s models.Standing
		if err := rows.Scan(
			&s.ID, &s.TournamentID, &s.TeamExternalID, &s.TeamName,
			&s.Position, &s.Points, &s.Played, &s.Wins, &s.Draws, &s.Losses,
			&s.GoalsFor, &s.GoalsAgainst, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}
