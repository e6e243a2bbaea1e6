package models

import "time"

type MatchStatus string

const (
	MatchStatusSetup      MatchStatus = "setup"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusFinished   MatchStatus = "finished"
)

type Match struct {
	ID           int         `json:"id" db:"id"`
	GameID       int         `json:"game_id" db:"game_id"`
	ScoresheetID int         `json:"scoresheet_id" db:"scoresheet_id"`
	OwnerID      int         `json:"owner_id" db:"owner_id"`
	Name         string      `json:"name" db:"name"`
	Location     *string     `json:"location,omitempty" db:"location"`
	Comment      *string     `json:"comment,omitempty" db:"comment"`
	PlayedAt     time.Time   `json:"played_at" db:"played_at"`
	Status       MatchStatus `json:"status" db:"status"`
	DurationSec  int         `json:"duration_sec" db:"duration_sec"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`

	Teams   []MatchTeam   `json:"teams,omitempty" db:"-"`
	Players []MatchPlayer `json:"players,omitempty" db:"-"`
}

// MatchPlayer is a player's seat in a match. Score, Placement and Winner are
// written when the match is finished.
type MatchPlayer struct {
	ID          int      `json:"id" db:"id"`
	MatchID     int      `json:"match_id" db:"match_id"`
	PlayerID    int      `json:"player_id" db:"player_id"`
	TeamID      *int     `json:"team_id,omitempty" db:"team_id"`
	ManualScore *float64 `json:"manual_score,omitempty" db:"manual_score"`
	Score       *float64 `json:"score" db:"score"`
	Placement   *int     `json:"placement,omitempty" db:"placement"`
	Winner      bool     `json:"winner" db:"winner"`

	Rounds []RoundScore `json:"rounds" db:"-"`
	Player *Player      `json:"player,omitempty" db:"-"`
}

type RoundScore struct {
	MatchPlayerID int      `json:"match_player_id" db:"match_player_id"`
	RoundID       int      `json:"round_id" db:"round_id"`
	Score         *float64 `json:"score" db:"score"`
}
