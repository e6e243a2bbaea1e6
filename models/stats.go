package models

// PlayerGameStats aggregates a player's finished matches of one game.
type PlayerGameStats struct {
	PlayerID     int      `json:"player_id"`
	PlayerName   string   `json:"player_name"`
	MatchesCount int      `json:"matches_count"`
	Wins         int      `json:"wins"`
	WinRate      float64  `json:"win_rate"`
	BestScore    *float64 `json:"best_score,omitempty"`
	AverageScore *float64 `json:"average_score,omitempty"`
	AvgPlacement *float64 `json:"average_placement,omitempty"`
}

// MatchSummary is the read model for a match result screen.
type MatchSummary struct {
	Match      *Match          `json:"match"`
	Game       *Game           `json:"game"`
	Scoresheet *Scoresheet     `json:"scoresheet"`
	Standings  []MatchStanding `json:"standings"`
}

type MatchStanding struct {
	MatchPlayerID int      `json:"match_player_id"`
	PlayerName    string   `json:"player_name"`
	TeamID        *int     `json:"team_id,omitempty"`
	Score         *float64 `json:"score"`
	Placement     int      `json:"placement,omitempty"`
	Winner        bool     `json:"winner"`
}
