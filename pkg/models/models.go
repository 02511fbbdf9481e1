package models

import "time"

// MatchStatus is the lifecycle state of a fixture as reported by the provider.
type MatchStatus string

const (
	MatchStatusOpen       MatchStatus = "open"
	MatchStatusEnded      MatchStatus = "ended"
	MatchStatusNotDefined MatchStatus = "not-defined"
)

// Match represents one fixture between two teams. A match is identified by
// (ExternalID, Provider) and is never deleted, only refreshed.
type Match struct {
	ID            int64
	ExternalID    string
	Provider      string
	TournamentID  int64
	RoundSlug     string
	HomeTeamID    int64
	AwayTeamID    int64
	HomeScore     *int32
	AwayScore     *int32
	Date          *time.Time
	Status        MatchStatus
	LastCheckedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasEnded reports whether the match reached a final result.
func (m Match) HasEnded() bool {
	return m.Status == MatchStatusEnded
}

// Tournament is read-only context for the sync core. It supplies the label
// used to derive schedule identifiers and the provider URLs used to build
// fetch requests. Ownership of tournament rows sits with the ingestion domain.
type Tournament struct {
	ID             int64
	Label          string
	Slug           string
	Provider       string
	BaseURL        string
	ProviderURL    string
	TrackKnockouts bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Standing is one row of a tournament table.
type Standing struct {
	ID             int64
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
	UpdatedAt      time.Time
}

// PollerStats are diagnostic counters over the open-match backlog.
type PollerStats struct {
	TotalOpen       int64 `json:"total_open"`
	DueNow          int64 `json:"due_now"`
	RecentlyChecked int64 `json:"recently_checked"`
}

// PassSummary aggregates the outcome of one orchestrator pass.
type PassSummary struct {
	Processed          int `json:"processed"`
	Successful         int `json:"successful"`
	Failed             int `json:"failed"`
	StandingsRefreshed int `json:"standings_refreshed"`
}

// PlanSummary aggregates the outcome of one schedule-planning run.
type PlanSummary struct {
	Candidates int `json:"candidates"`
	Created    int `json:"created"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}
