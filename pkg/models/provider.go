package models

// ProviderMatch is the raw match payload returned by the fetch gateway after
// it scrapes the upstream provider.
type ProviderMatch struct {
	ExternalID string  `json:"id"`
	Provider   string  `json:"provider"`
	Round      string  `json:"round"`
	HomeTeam   string  `json:"home"`
	AwayTeam   string  `json:"away"`
	HomeScore  *int32  `json:"homeScore"`
	AwayScore  *int32  `json:"awayScore"`
	Date       *int64  `json:"date"` // unix seconds, null when not yet announced
	Status     string  `json:"status"`
	Venue      string  `json:"venue,omitempty"`
	Referee    *string `json:"referee,omitempty"`
}

// ProviderStandings is the raw standings payload for one tournament.
type ProviderStandings struct {
	Tournament string                 `json:"tournament"`
	Rows       []ProviderStandingsRow `json:"rows"`
}

// ProviderStandingsRow is one table row as scraped from the provider.
type ProviderStandingsRow struct {
	TeamID       string `json:"teamId"`
	TeamName     string `json:"team"`
	Position     int32  `json:"pos"`
	Points       int32  `json:"pts"`
	Played       int32  `json:"p"`
	Wins         int32  `json:"w"`
	Draws        int32  `json:"d"`
	Losses       int32  `json:"l"`
	GoalsFor     int32  `json:"gf"`
	GoalsAgainst int32  `json:"ga"`
}

// NormalizeProviderStatus maps the provider's free-form status strings onto
// the local match lifecycle.
func NormalizeProviderStatus(status string) MatchStatus {
	switch status {
	case "open", "scheduled", "in-progress", "live":
		return MatchStatusOpen
	case "ended", "finished", "final":
		return MatchStatusEnded
	default:
		return MatchStatusNotDefined
	}
}
