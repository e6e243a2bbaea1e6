package models

import "github.com/Dosada05/boardgame-tracker/scoring"

type ScoresheetRound struct {
	ID           int    `json:"id" db:"id"`
	ScoresheetID int    `json:"scoresheet_id" db:"scoresheet_id"`
	Name         string `json:"name" db:"name"`
	Order        int    `json:"order" db:"round_order"`
}

// Scoresheet describes how a game is scored. A game can have several, one of
// them marked as default.
type Scoresheet struct {
	ID           int                  `json:"id" db:"id"`
	GameID       int                  `json:"game_id" db:"game_id"`
	Name         string               `json:"name" db:"name"`
	IsDefault    bool                 `json:"is_default" db:"is_default"`
	IsCoop       bool                 `json:"is_coop" db:"is_coop"`
	RoundsScore  scoring.RoundsScore  `json:"rounds_score" db:"rounds_score"`
	WinCondition scoring.WinCondition `json:"win_condition" db:"win_condition"`
	TargetScore  *float64             `json:"target_score,omitempty" db:"target_score"`

	Rounds []ScoresheetRound `json:"rounds" db:"-"`
}

func (s *Scoresheet) Config() scoring.ScoresheetConfig {
	return scoring.ScoresheetConfig{
		RoundsScore:  s.RoundsScore,
		WinCondition: s.WinCondition,
		TargetScore:  s.TargetScore,
	}
}
