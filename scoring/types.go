package scoring

import (
	"errors"
	"fmt"
)

// RoundsScore описывает, как очки раундов сводятся в итоговый счёт.
type RoundsScore string

const (
	RoundsScoreAggregate RoundsScore = "Aggregate"
	RoundsScoreBestOf    RoundsScore = "Best Of"
	RoundsScoreManual    RoundsScore = "Manual"
)

// Valid reports whether rs is a known rounds-score mode.
func (rs RoundsScore) Valid() bool {
	switch rs {
	case RoundsScoreAggregate, RoundsScoreBestOf, RoundsScoreManual:
		return true
	}
	return false
}

// WinCondition описывает, как итоговые очки превращаются в места.
type WinCondition string

const (
	WinConditionHighestScore WinCondition = "Highest Score"
	WinConditionLowestScore  WinCondition = "Lowest Score"
	WinConditionTargetScore  WinCondition = "Target Score"
	WinConditionManual       WinCondition = "Manual"
	WinConditionNoWinner     WinCondition = "No Winner"
)

// Valid reports whether wc is a known win condition.
func (wc WinCondition) Valid() bool {
	switch wc {
	case WinConditionHighestScore, WinConditionLowestScore, WinConditionTargetScore,
		WinConditionManual, WinConditionNoWinner:
		return true
	}
	return false
}

var (
	ErrInvalidRoundsScore  = errors.New("invalid rounds score type")
	ErrInvalidWinCondition = errors.New("invalid win condition")
	ErrTargetScoreRequired = errors.New("target score is required for the target score win condition")
	ErrUnsupportedCombo    = errors.New("unsupported rounds score and win condition combination")
)

// ScoresheetConfig is the part of a scoresheet the engine reads.
// TargetScore is only meaningful when WinCondition is WinConditionTargetScore.
type ScoresheetConfig struct {
	RoundsScore  RoundsScore  `json:"rounds_score" yaml:"rounds_score"`
	WinCondition WinCondition `json:"win_condition" yaml:"win_condition"`
	TargetScore  *float64     `json:"target_score,omitempty" yaml:"target_score,omitempty"`
}

// Validate reports configurations the service layer should refuse to store.
// The engine itself accepts anything and degrades to nil scores.
func (c ScoresheetConfig) Validate() error {
	if !c.RoundsScore.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRoundsScore, c.RoundsScore)
	}
	if !c.WinCondition.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidWinCondition, c.WinCondition)
	}
	if c.WinCondition == WinConditionTargetScore && c.TargetScore == nil {
		return ErrTargetScoreRequired
	}
	if c.RoundsScore == RoundsScoreBestOf &&
		(c.WinCondition == WinConditionManual || c.WinCondition == WinConditionNoWinner) {
		return fmt.Errorf("%w: %s with %s", ErrUnsupportedCombo, c.RoundsScore, c.WinCondition)
	}
	return nil
}

// Round is a single round score; a nil Score means the round was not scored.
type Round struct {
	Score *float64 `json:"score" yaml:"score"`
}

// Participant is a player, or a stand-in for a team's shared score line.
// Teammates must carry identical round scores.
type Participant struct {
	ID     int     `json:"id" yaml:"id"`
	Rounds []Round `json:"rounds" yaml:"rounds"`
	TeamID *int    `json:"team_id,omitempty" yaml:"team_id,omitempty"`
}

// FinalScoreResult is one participant's final score; nil means undetermined.
type FinalScoreResult struct {
	ID     int      `json:"id" yaml:"id"`
	Score  *float64 `json:"score" yaml:"score"`
	TeamID *int     `json:"team_id,omitempty" yaml:"team_id,omitempty"`
}

// PlacementResult is a participant's rank, starting at 1.
type PlacementResult struct {
	ID        int      `json:"id" yaml:"id"`
	Score     *float64 `json:"score" yaml:"score"`
	Placement int      `json:"placement" yaml:"placement"`
}
