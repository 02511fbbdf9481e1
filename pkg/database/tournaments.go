package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matchpulse/core/pkg/models"
)

const tournamentColumns = `id, label, slug, provider, base_url, provider_url,
	track_knockouts, created_at, updated_at`

func scanTournament(row pgx.Row) (models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(
		&t.ID, &t.Label, &t.Slug, &t.Provider, &t.BaseURL, &t.ProviderURL,
		&t.TrackKnockouts, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// GetTournament returns one tournament row.
func (q *Queries) GetTournament(ctx context.Context, tournamentID int64) (models.Tournament, error) {
	t, err := scanTournament(q.db.QueryRow(ctx,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, tournamentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Tournament{}, fmt.Errorf("tournament %d: %w", tournamentID, ErrNotFound)
	}
	if err != nil {
		return models.Tournament{}, fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}
	return t, nil
}

// ListKnockoutTournaments returns tournaments tracking knockout rounds,
// the candidates for a recurring knockout discovery trigger.
func (q *Queries) ListKnockoutTournaments(ctx context.Context) ([]models.Tournament, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE track_knockouts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list knockout tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []models.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}
