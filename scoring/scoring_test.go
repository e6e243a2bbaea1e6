package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(v float64) *float64 { return &v }

func team(id int) *int { return &id }

func rounds(scores ...*float64) []Round {
	out := make([]Round, len(scores))
	for i, s := range scores {
		out[i] = Round{Score: s}
	}
	return out
}

var (
	aggregateHighest = ScoresheetConfig{RoundsScore: RoundsScoreAggregate, WinCondition: WinConditionHighestScore}
	aggregateLowest  = ScoresheetConfig{RoundsScore: RoundsScoreAggregate, WinCondition: WinConditionLowestScore}
	bestOfHighest    = ScoresheetConfig{RoundsScore: RoundsScoreBestOf, WinCondition: WinConditionHighestScore}
	bestOfLowest     = ScoresheetConfig{RoundsScore: RoundsScoreBestOf, WinCondition: WinConditionLowestScore}
)

func bestOfTarget(target float64) ScoresheetConfig {
	return ScoresheetConfig{RoundsScore: RoundsScoreBestOf, WinCondition: WinConditionTargetScore, TargetScore: num(target)}
}

func TestComputeFinalScore(t *testing.T) {
	tests := []struct {
		name   string
		rounds []Round
		cfg    ScoresheetConfig
		want   *float64
	}{
		{name: "empty rounds", rounds: nil, cfg: aggregateHighest, want: nil},
		{name: "empty rounds best of", rounds: []Round{}, cfg: bestOfHighest, want: nil},
		{name: "all rounds unscored", rounds: rounds(nil, nil), cfg: aggregateHighest, want: nil},
		{name: "aggregate sum", rounds: rounds(num(10), num(20), num(30)), cfg: aggregateHighest, want: num(60)},
		{name: "aggregate negative and mixed", rounds: rounds(num(10), num(-20), num(30)), cfg: aggregateHighest, want: num(20)},
		{name: "aggregate all negative", rounds: rounds(num(-5), num(-7)), cfg: aggregateLowest, want: num(-12)},
		{name: "aggregate skips unscored", rounds: rounds(num(4), nil, num(6)), cfg: aggregateHighest, want: num(10)},
		{name: "aggregate zero is a score", rounds: rounds(num(0)), cfg: aggregateHighest, want: num(0)},
		{name: "aggregate ignores win condition", rounds: rounds(num(1), num(2)), cfg: ScoresheetConfig{RoundsScore: RoundsScoreAggregate, WinCondition: WinConditionNoWinner}, want: num(3)},
		{name: "aggregate with manual win condition", rounds: rounds(num(1), num(2)), cfg: ScoresheetConfig{RoundsScore: RoundsScoreAggregate, WinCondition: WinConditionManual}, want: num(3)},
		{name: "best of highest", rounds: rounds(num(10), num(40), num(30)), cfg: bestOfHighest, want: num(40)},
		{name: "best of highest negatives", rounds: rounds(num(-10), num(-4), num(-30)), cfg: bestOfHighest, want: num(-4)},
		{name: "best of highest skips unscored", rounds: rounds(nil, num(3), nil), cfg: bestOfHighest, want: num(3)},
		{name: "best of lowest", rounds: rounds(num(10), num(4), num(30)), cfg: bestOfLowest, want: num(4)},
		{name: "best of lowest skips unscored", rounds: rounds(num(10), nil, num(7)), cfg: bestOfLowest, want: num(7)},
		{name: "best of lowest all unscored", rounds: rounds(nil), cfg: bestOfLowest, want: nil},
		{name: "target exact match", rounds: rounds(num(40), num(50), num(60)), cfg: bestOfTarget(50), want: num(50)},
		{name: "target exact match beats later candidates", rounds: rounds(num(50), num(49)), cfg: bestOfTarget(50), want: num(50)},
		{name: "target nearest below", rounds: rounds(num(10), num(45), num(70)), cfg: bestOfTarget(50), want: num(45)},
		{name: "target nearest above", rounds: rounds(num(10), num(52), num(70)), cfg: bestOfTarget(50), want: num(52)},
		{name: "target equal distance keeps earlier", rounds: rounds(num(55), num(45)), cfg: bestOfTarget(50), want: num(55)},
		{name: "target equal distance keeps earlier reversed", rounds: rounds(num(45), num(55)), cfg: bestOfTarget(50), want: num(45)},
		{name: "target negative", rounds: rounds(num(-8), num(-12), num(0)), cfg: bestOfTarget(-10), want: num(-8)},
		{name: "target skips unscored", rounds: rounds(nil, num(30), nil), cfg: bestOfTarget(50), want: num(30)},
		{name: "target missing", rounds: rounds(num(50)), cfg: ScoresheetConfig{RoundsScore: RoundsScoreBestOf, WinCondition: WinConditionTargetScore}, want: nil},
		{name: "aggregate target missing", rounds: rounds(num(10), num(5)), cfg: ScoresheetConfig{RoundsScore: RoundsScoreAggregate, WinCondition: WinConditionTargetScore}, want: nil},
		{name: "aggregate target", rounds: rounds(num(10), num(5)), cfg: ScoresheetConfig{RoundsScore: RoundsScoreAggregate, WinCondition: WinConditionTargetScore, TargetScore: num(20)}, want: num(15)},
		{name: "best of no winner", rounds: rounds(num(1)), cfg: ScoresheetConfig{RoundsScore: RoundsScoreBestOf, WinCondition: WinConditionNoWinner}, want: nil},
		{name: "best of manual", rounds: rounds(num(1)), cfg: ScoresheetConfig{RoundsScore: RoundsScoreBestOf, WinCondition: WinConditionManual}, want: nil},
		{name: "manual rounds score", rounds: rounds(num(1)), cfg: ScoresheetConfig{RoundsScore: RoundsScoreManual, WinCondition: WinConditionHighestScore}, want: nil},
		{name: "unknown rounds score", rounds: rounds(num(1)), cfg: ScoresheetConfig{RoundsScore: "Median", WinCondition: WinConditionHighestScore}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeFinalScore(tt.rounds, tt.cfg)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestComputeFinalScoreDoesNotAliasInput(t *testing.T) {
	in := rounds(num(5))
	got := ComputeFinalScore(in, bestOfHighest)
	require.NotNil(t, got)
	*got = 99
	assert.Equal(t, float64(5), *in[0].Score)
}

func TestComputeFinalScores(t *testing.T) {
	participants := []Participant{
		{ID: 3, Rounds: rounds(num(1), num(2))},
		{ID: 1, Rounds: nil, TeamID: team(7)},
		{ID: 2, Rounds: rounds(num(-4)), TeamID: team(7)},
	}

	got := ComputeFinalScores(participants, aggregateHighest)

	require.Len(t, got, 3)
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, float64(3), *got[0].Score)
	assert.Nil(t, got[0].TeamID)
	assert.Equal(t, 1, got[1].ID)
	assert.Nil(t, got[1].Score)
	assert.Equal(t, 7, *got[1].TeamID)
	assert.Equal(t, 2, got[2].ID)
	assert.Equal(t, float64(-4), *got[2].Score)
}

func TestComputeFinalScoresEmpty(t *testing.T) {
	got := ComputeFinalScores(nil, aggregateHighest)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

type placementCase struct {
	name         string
	participants []Participant
	cfg          ScoresheetConfig
	wantIDs      []int
	wantPlaces   []int
}

func single(id int, score *float64) Participant {
	return Participant{ID: id, Rounds: rounds(score)}
}

func teammate(id, teamID int, score *float64) Participant {
	return Participant{ID: id, Rounds: rounds(score), TeamID: team(teamID)}
}

func TestComputePlacements(t *testing.T) {
	tests := []placementCase{
		{
			name:         "single participant",
			participants: []Participant{single(1, num(12))},
			cfg:          aggregateHighest,
			wantIDs:      []int{1},
			wantPlaces:   []int{1},
		},
		{
			name:         "single participant without score",
			participants: []Participant{{ID: 1}},
			cfg:          aggregateHighest,
			wantIDs:      []int{1},
			wantPlaces:   []int{1},
		},
		{
			name:         "highest score ordering",
			participants: []Participant{single(1, num(10)), single(2, num(30)), single(3, num(20))},
			cfg:          aggregateHighest,
			wantIDs:      []int{2, 3, 1},
			wantPlaces:   []int{1, 2, 3},
		},
		{
			name:         "lowest score ordering",
			participants: []Participant{single(1, num(10)), single(2, num(30)), single(3, num(20))},
			cfg:          aggregateLowest,
			wantIDs:      []int{1, 3, 2},
			wantPlaces:   []int{1, 2, 3},
		},
		{
			name:         "tie at the top",
			participants: []Participant{single(1, num(30)), single(2, num(30)), single(3, num(20))},
			cfg:          aggregateHighest,
			wantIDs:      []int{1, 2, 3},
			wantPlaces:   []int{1, 1, 3},
		},
		{
			name:         "tie in the middle",
			participants: []Participant{single(1, num(40)), single(2, num(30)), single(3, num(30)), single(4, num(10))},
			cfg:          aggregateHighest,
			wantIDs:      []int{1, 2, 3, 4},
			wantPlaces:   []int{1, 2, 2, 4},
		},
		{
			name:         "all equal",
			participants: []Participant{single(1, num(5)), single(2, num(5)), single(3, num(5))},
			cfg:          aggregateHighest,
			wantIDs:      []int{1, 2, 3},
			wantPlaces:   []int{1, 1, 1},
		},
		{
			name:         "negative scores",
			participants: []Participant{single(1, num(-10)), single(2, num(0)), single(3, num(-3))},
			cfg:          aggregateHighest,
			wantIDs:      []int{2, 3, 1},
			wantPlaces:   []int{1, 2, 3},
		},
		{
			name:         "null scores rank last and tie",
			participants: []Participant{{ID: 1}, single(2, num(3)), {ID: 3, Rounds: rounds(nil)}, single(4, num(8))},
			cfg:          aggregateHighest,
			wantIDs:      []int{4, 2, 1, 3},
			wantPlaces:   []int{1, 2, 3, 3},
		},
		{
			name:         "null scores rank last for lowest score",
			participants: []Participant{{ID: 1}, single(2, num(3)), single(3, num(-1))},
			cfg:          aggregateLowest,
			wantIDs:      []int{3, 2, 1},
			wantPlaces:   []int{1, 2, 3},
		},
		{
			name:         "all null scores",
			participants: []Participant{{ID: 1}, {ID: 2}},
			cfg:          aggregateHighest,
			wantIDs:      []int{1, 2},
			wantPlaces:   []int{1, 1},
		},
		{
			name:         "target score ascending distance",
			participants: []Participant{single(1, num(40)), single(2, num(52)), single(3, num(50)), single(4, num(70))},
			cfg:          bestOfTarget(50),
			wantIDs:      []int{3, 2, 1, 4},
			wantPlaces:   []int{1, 2, 3, 4},
		},
		{
			name:         "target score equal distance keeps order but ties only on equal score",
			participants: []Participant{single(1, num(55)), single(2, num(45)), single(3, num(60))},
			cfg:          bestOfTarget(50),
			wantIDs:      []int{1, 2, 3},
			wantPlaces:   []int{1, 2, 3},
		},
		{
			name:         "target score exact ties",
			participants: []Participant{single(1, num(48)), single(2, num(50)), single(3, num(50))},
			cfg:          bestOfTarget(50),
			wantIDs:      []int{2, 3, 1},
			wantPlaces:   []int{1, 1, 3},
		},
		{
			name: "target score missing target",
			participants: []Participant{single(1, num(50)), single(2, num(40))},
			cfg: ScoresheetConfig{
				RoundsScore:  RoundsScoreBestOf,
				WinCondition: WinConditionTargetScore,
			},
			wantIDs:    []int{1, 2},
			wantPlaces: []int{1, 1},
		},
		{
			name: "aggregate target missing does not rank by input order",
			participants: []Participant{single(1, num(10)), single(2, num(40)), {ID: 3}},
			cfg: ScoresheetConfig{
				RoundsScore:  RoundsScoreAggregate,
				WinCondition: WinConditionTargetScore,
			},
			wantIDs:    []int{1, 2, 3},
			wantPlaces: []int{1, 1, 1},
		},
		{
			name:         "team shares placement and counts once",
			participants: []Participant{teammate(1, 9, num(30)), teammate(2, 9, num(30)), single(3, num(20))},
			cfg:          aggregateHighest,
			wantIDs:      []int{1, 2, 3},
			wantPlaces:   []int{1, 1, 2},
		},
		{
			name:         "team of three counts once",
			participants: []Participant{single(4, num(50)), teammate(1, 9, num(30)), teammate(2, 9, num(30)), teammate(3, 9, num(30)), single(5, num(10))},
			cfg:          aggregateHighest,
			wantIDs:      []int{4, 1, 2, 3, 5},
			wantPlaces:   []int{1, 2, 2, 2, 3},
		},
		{
			name: "two teams and individuals",
			participants: []Participant{
				teammate(1, 1, num(10)), teammate(2, 1, num(10)),
				teammate(3, 2, num(20)), teammate(4, 2, num(20)),
				single(5, num(15)), single(6, num(5)),
			},
			cfg:        aggregateHighest,
			wantIDs:    []int{3, 4, 5, 1, 2, 6},
			wantPlaces: []int{1, 1, 2, 3, 3, 4},
		},
		{
			name: "team tied with individual",
			participants: []Participant{
				teammate(1, 1, num(10)), single(2, num(10)), teammate(3, 1, num(10)), single(4, num(5)),
			},
			cfg:        aggregateHighest,
			wantIDs:    []int{1, 2, 3, 4},
			wantPlaces: []int{1, 1, 1, 3},
		},
		{
			name: "team without scores ranks last",
			participants: []Participant{
				{ID: 1, TeamID: team(3)}, {ID: 2, TeamID: team(3)}, single(3, num(1)),
			},
			cfg:        aggregateHighest,
			wantIDs:    []int{3, 1, 2},
			wantPlaces: []int{1, 2, 2},
		},
		{
			name:         "no winner keeps input order",
			participants: []Participant{single(1, num(1)), single(2, num(3)), single(3, num(3))},
			cfg:          ScoresheetConfig{RoundsScore: RoundsScoreAggregate, WinCondition: WinConditionNoWinner},
			wantIDs:      []int{1, 2, 3},
			wantPlaces:   []int{1, 2, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePlacements(tt.participants, tt.cfg)
			require.Len(t, got, len(tt.participants))

			ids := make([]int, len(got))
			places := make([]int, len(got))
			for i, p := range got {
				ids[i] = p.ID
				places[i] = p.Placement
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantPlaces, places)
		})
	}
}

func TestComputePlacementsCarriesScores(t *testing.T) {
	got := ComputePlacements([]Participant{
		{ID: 1, Rounds: rounds(num(10), num(-20), num(30))},
		{ID: 2},
	}, aggregateHighest)

	require.Len(t, got, 2)
	require.NotNil(t, got[0].Score)
	assert.Equal(t, float64(20), *got[0].Score)
	assert.Nil(t, got[1].Score)
}

func TestComputePlacementsDeterministic(t *testing.T) {
	participants := []Participant{
		teammate(1, 1, num(10)), single(2, num(10)), single(3, nil), teammate(4, 1, num(10)), single(5, num(12)),
	}
	first := ComputePlacements(participants, aggregateHighest)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ComputePlacements(participants, aggregateHighest))
	}
}

func TestComputePlacementsDoesNotReorderInput(t *testing.T) {
	participants := []Participant{single(1, num(1)), single(2, num(2))}
	_ = ComputePlacements(participants, aggregateHighest)
	assert.Equal(t, 1, participants[0].ID)
	assert.Equal(t, 2, participants[1].ID)
}

func TestRankFinalScoresManualEntries(t *testing.T) {
	got := RankFinalScores([]FinalScoreResult{
		{ID: 1, Score: num(7)},
		{ID: 2, Score: num(11)},
		{ID: 3, Score: nil},
	}, ScoresheetConfig{RoundsScore: RoundsScoreManual, WinCondition: WinConditionHighestScore})

	require.Len(t, got, 3)
	assert.Equal(t, PlacementResult{ID: 2, Score: num(11), Placement: 1}, got[0])
	assert.Equal(t, PlacementResult{ID: 1, Score: num(7), Placement: 2}, got[1])
	assert.Equal(t, PlacementResult{ID: 3, Score: nil, Placement: 3}, got[2])
}

func TestWinners(t *testing.T) {
	placements := []PlacementResult{
		{ID: 1, Score: num(9), Placement: 1},
		{ID: 2, Score: num(9), Placement: 1},
		{ID: 3, Score: num(2), Placement: 3},
	}

	assert.Equal(t, []int{1, 2}, Winners(placements, aggregateHighest))
	assert.Empty(t, Winners(placements, ScoresheetConfig{RoundsScore: RoundsScoreAggregate, WinCondition: WinConditionNoWinner}))
	assert.Empty(t, Winners(placements, ScoresheetConfig{RoundsScore: RoundsScoreAggregate, WinCondition: WinConditionManual}))
	assert.Empty(t, Winners([]PlacementResult{{ID: 1, Placement: 1}}, aggregateHighest))
}

func TestScoresheetConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ScoresheetConfig
		wantErr error
	}{
		{name: "aggregate highest", cfg: aggregateHighest},
		{name: "best of target", cfg: bestOfTarget(21)},
		{name: "manual rounds", cfg: ScoresheetConfig{RoundsScore: RoundsScoreManual, WinCondition: WinConditionManual}},
		{name: "unknown rounds score", cfg: ScoresheetConfig{RoundsScore: "Median", WinCondition: WinConditionHighestScore}, wantErr: ErrInvalidRoundsScore},
		{name: "unknown win condition", cfg: ScoresheetConfig{RoundsScore: RoundsScoreAggregate, WinCondition: "Random"}, wantErr: ErrInvalidWinCondition},
		{name: "target missing", cfg: ScoresheetConfig{RoundsScore: RoundsScoreAggregate, WinCondition: WinConditionTargetScore}, wantErr: ErrTargetScoreRequired},
		{name: "best of no winner", cfg: ScoresheetConfig{RoundsScore: RoundsScoreBestOf, WinCondition: WinConditionNoWinner}, wantErr: ErrUnsupportedCombo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
