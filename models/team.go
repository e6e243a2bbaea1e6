package models

type MatchTeam struct {
	ID      int    `json:"id" db:"id"`
	MatchID int    `json:"match_id" db:"match_id"`
	Name    string `json:"name" db:"name"`
}
