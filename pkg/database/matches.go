package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/matchpulse/core/pkg/models"
)

const matchColumns = `id, external_id, provider, tournament_id, round_slug,
	home_team_id, away_team_id, home_score, away_score, date, status,
	last_checked_at, created_at, updated_at`

func scanMatch(row pgx.Row) (models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.ExternalID, &m.Provider, &m.TournamentID, &m.RoundSlug,
		&m.HomeTeamID, &m.AwayTeamID, &m.HomeScore, &m.AwayScore, &m.Date,
		&m.Status, &m.LastCheckedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

type UpsertMatchParams struct {
	ExternalID   string
	Provider     string
	TournamentID int64
	RoundSlug    string
	HomeTeamID   int64
	AwayTeamID   int64
	HomeScore    *int32
	AwayScore    *int32
	Date         *time.Time
	Status       models.MatchStatus
}

// UpsertMatch merges a fetched match into the store keyed by its natural
// identity (external_id, provider). A second write with the same identity
// overwrites field values (last-write-wins); last_checked_at is left alone
// so the poller's cooldown bookkeeping survives refreshes.
func (q *Queries) UpsertMatch(ctx context.Context, arg UpsertMatchParams) (models.Match, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO matches (
			external_id, provider, tournament_id, round_slug,
			home_team_id, away_team_id, home_score, away_score, date, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (external_id, provider) DO UPDATE SET
			tournament_id = EXCLUDED.tournament_id,
			round_slug = EXCLUDED.round_slug,
			home_team_id = EXCLUDED.home_team_id,
			away_team_id = EXCLUDED.away_team_id,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			date = EXCLUDED.date,
			status = EXCLUDED.status,
			updated_at = now()
		RETURNING `+matchColumns,
		arg.ExternalID, arg.Provider, arg.TournamentID, arg.RoundSlug,
		arg.HomeTeamID, arg.AwayTeamID, arg.HomeScore, arg.AwayScore,
		arg.Date, arg.Status,
	)

	m, err := scanMatch(row)
	if err != nil {
		return models.Match{}, fmt.Errorf("failed to upsert match %s/%s: %w", arg.Provider, arg.ExternalID, err)
	}
	return m, nil
}

type ListDueMatchesParams struct {
	StartedBefore time.Time
	CheckedBefore time.Time
	Limit         int32
}

// ListDueMatches returns open matches that plausibly started before
// StartedBefore and were last checked before CheckedBefore (or never),
// oldest kickoff first so a backlog drains fairly.
func (q *Queries) ListDueMatches(ctx context.Context, arg ListDueMatchesParams) ([]models.Match, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+matchColumns+`
		FROM matches
		WHERE status = 'open'
		  AND date IS NOT NULL
		  AND date <= $1
		  AND (last_checked_at IS NULL OR last_checked_at <= $2)
		ORDER BY date ASC
		LIMIT $3`,
		arg.StartedBefore, arg.CheckedBefore, arg.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due matches: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// MarkMatchChecked stamps the freshness-check timestamp. GREATEST keeps the
// stamp monotonically non-decreasing even if two overlapping passes race on
// the same row.
func (q *Queries) MarkMatchChecked(ctx context.Context, matchID int64) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE matches
		SET last_checked_at = GREATEST(coalesce(last_checked_at, 'epoch'::timestamptz), now()),
		    updated_at = now()
		WHERE id = $1`,
		matchID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark match %d checked: %w", matchID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}
	return nil
}

type CountMatchCheckStatesParams struct {
	StartedBefore time.Time
	CheckedBefore time.Time
}

// CountMatchCheckStates returns diagnostic counters over the open backlog.
func (q *Queries) CountMatchCheckStates(ctx context.Context, arg CountMatchCheckStatesParams) (models.PollerStats, error) {
	var stats models.PollerStats
	err := q.db.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE date IS NOT NULL AND date <= $1
				AND (last_checked_at IS NULL OR last_checked_at <= $2)),
			count(*) FILTER (WHERE last_checked_at > $2)
		FROM matches
		WHERE status = 'open'`,
		arg.StartedBefore, arg.CheckedBefore,
	).Scan(&stats.TotalOpen, &stats.DueNow, &stats.RecentlyChecked)
	if err != nil {
		return models.PollerStats{}, fmt.Errorf("failed to count match check states: %w", err)
	}
	return stats, nil
}

type ListUpcomingOpenMatchesParams struct {
	From time.Time
	To   time.Time
}

// ListUpcomingOpenMatches returns open matches kicking off inside the window,
// used by the schedule planner to create end-of-match triggers ahead of time.
func (q *Queries) ListUpcomingOpenMatches(ctx context.Context, arg ListUpcomingOpenMatchesParams) ([]models.Match, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+matchColumns+`
		FROM matches
		WHERE status = 'open'
		  AND date IS NOT NULL
		  AND date >= $1
		  AND date <= $2
		ORDER BY date ASC`,
		arg.From, arg.To,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming matches: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upcoming match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// GetMatchByID returns one match row.
func (q *Queries) GetMatchByID(ctx context.Context, matchID int64) (models.Match, error) {
	m, err := scanMatch(q.db.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, matchID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Match{}, fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}
	if err != nil {
		return models.Match{}, fmt.Errorf("failed to get match %d: %w", matchID, err)
	}
	return m, nil
}
