package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Dosada05/boardgame-tracker/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRunAggregateWithTeam(t *testing.T) {
	in := `
scoresheet:
  rounds_score: Aggregate
  win_condition: Highest Score
participants:
  - id: 1
    rounds: [{score: 10}, {score: 4}]
  - id: 2
    team_id: 7
    rounds: [{score: 12}, {score: 5}]
  - id: 3
    team_id: 7
    rounds: [{score: 12}, {score: 5}]
  - id: 4
    rounds: [{score: null}]
`
	var out bytes.Buffer
	require.NoError(t, run(strings.NewReader(in), &out, false))

	var got report
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))

	require.Len(t, got.Scores, 4)
	assert.Equal(t, 14.0, *got.Scores[0].Score)
	assert.Equal(t, 17.0, *got.Scores[1].Score)
	assert.Nil(t, got.Scores[3].Score)

	placementOf := make(map[int]int)
	for _, p := range got.Placements {
		placementOf[p.ID] = p.Placement
	}
	assert.Equal(t, map[int]int{2: 1, 3: 1, 1: 2, 4: 3}, placementOf)
	assert.ElementsMatch(t, []int{2, 3}, got.Winners)
}

func TestRunAcceptsJSON(t *testing.T) {
	in := `{"scoresheet":{"rounds_score":"Best Of","win_condition":"Lowest Score"},
"participants":[{"id":5,"rounds":[{"score":9},{"score":3}]},{"id":6,"rounds":[{"score":4}]}]}`

	var out bytes.Buffer
	require.NoError(t, run(strings.NewReader(in), &out, false))

	var got report
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, 3.0, *got.Scores[0].Score)
	assert.Equal(t, []int{5}, got.Winners)
}

func TestRunRejectsInvalidScoresheet(t *testing.T) {
	in := `
scoresheet:
  rounds_score: Best Of
  win_condition: Target Score
participants:
  - id: 1
    rounds: [{score: 3}]
`
	err := run(strings.NewReader(in), &bytes.Buffer{}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, scoring.ErrTargetScoreRequired)

	var out bytes.Buffer
	require.NoError(t, run(strings.NewReader(in), &out, true))
	assert.Contains(t, out.String(), "winners: []")
}

func TestRunRejectsUnknownFieldsAndEmptyInput(t *testing.T) {
	err := run(strings.NewReader("scoresheet: {}\nplayers: []\n"), &bytes.Buffer{}, false)
	assert.ErrorContains(t, err, "failed to decode snapshot")

	err = run(strings.NewReader(""), &bytes.Buffer{}, false)
	assert.EqualError(t, err, "snapshot is empty")
}
