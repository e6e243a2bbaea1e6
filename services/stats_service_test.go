package services

import (
	"context"
	"testing"

	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerGameStats(t *testing.T) {
	f := newMatchFixture(t, highestAggregate())
	ctx := context.Background()
	stats := NewStatsService(f.games, f.matches, f.seats, f.sheets, f.players, discardLogger())

	first, err := f.svc.CreateMatch(ctx, testOwner, CreateMatchInput{GameID: f.game.ID, PlayerIDs: f.playerIDs[:3]})
	require.NoError(t, err)
	anna, boris, clara := first.Players[0].ID, first.Players[1].ID, first.Players[2].ID
	f.score(t, first.ID, anna, 0, 10)
	f.score(t, first.ID, anna, 1, 5)
	f.score(t, first.ID, boris, 0, 15)
	f.score(t, first.ID, clara, 0, 3)
	_, err = f.svc.FinishMatch(ctx, testOwner, first.ID, FinishMatchInput{})
	require.NoError(t, err)

	second, err := f.svc.CreateMatch(ctx, testOwner, CreateMatchInput{GameID: f.game.ID, PlayerIDs: f.playerIDs[:2]})
	require.NoError(t, err)
	f.score(t, second.ID, second.Players[0].ID, 0, 2)
	f.score(t, second.ID, second.Players[1].ID, 0, 8)
	_, err = f.svc.FinishMatch(ctx, testOwner, second.ID, FinishMatchInput{})
	require.NoError(t, err)

	// Unfinished matches are ignored.
	open, err := f.svc.CreateMatch(ctx, testOwner, CreateMatchInput{GameID: f.game.ID, PlayerIDs: f.playerIDs[2:4]})
	require.NoError(t, err)
	f.score(t, open.ID, open.Players[0].ID, 0, 100)

	// Stored flags are recomputed, not trusted.
	f.seats.seats[clara].Winner = true

	got, err := stats.PlayerGameStats(ctx, testOwner, f.game.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Boris", got[0].PlayerName)
	assert.Equal(t, 2, got[0].MatchesCount)
	assert.Equal(t, 2, got[0].Wins)
	assert.Equal(t, 1.0, got[0].WinRate)
	assert.Equal(t, 15.0, *got[0].BestScore)
	assert.Equal(t, 11.5, *got[0].AverageScore)
	assert.Equal(t, 1.0, *got[0].AvgPlacement)

	assert.Equal(t, "Anna", got[1].PlayerName)
	assert.Equal(t, 1, got[1].Wins)
	assert.Equal(t, 0.5, got[1].WinRate)
	assert.Equal(t, 15.0, *got[1].BestScore)
	assert.Equal(t, 8.5, *got[1].AverageScore)
	assert.Equal(t, 1.5, *got[1].AvgPlacement)

	assert.Equal(t, "Clara", got[2].PlayerName)
	assert.Equal(t, 1, got[2].MatchesCount)
	assert.Equal(t, 0, got[2].Wins)
	assert.Equal(t, 3.0, *got[2].BestScore)
	assert.Equal(t, 3.0, *got[2].AvgPlacement)
}

func TestPlayerGameStatsLowestScoreBest(t *testing.T) {
	f := newMatchFixture(t, scoring.ScoresheetConfig{RoundsScore: scoring.RoundsScoreAggregate, WinCondition: scoring.WinConditionLowestScore})
	ctx := context.Background()
	stats := NewStatsService(f.games, f.matches, f.seats, f.sheets, f.players, discardLogger())

	for _, v := range []float64{7, 3, 5} {
		m, err := f.svc.CreateMatch(ctx, testOwner, CreateMatchInput{GameID: f.game.ID, PlayerIDs: f.playerIDs[:1]})
		require.NoError(t, err)
		f.score(t, m.ID, m.Players[0].ID, 0, v)
		_, err = f.svc.FinishMatch(ctx, testOwner, m.ID, FinishMatchInput{})
		require.NoError(t, err)
	}

	got, err := stats.PlayerGameStats(ctx, testOwner, f.game.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, *got[0].BestScore)
	assert.Equal(t, 5.0, *got[0].AverageScore)
	assert.Equal(t, 3, got[0].Wins)
}

func TestPlayerGameStatsEmptyAndForbidden(t *testing.T) {
	f := newMatchFixture(t, highestAggregate())
	stats := NewStatsService(f.games, f.matches, f.seats, f.sheets, f.players, discardLogger())

	got, err := stats.PlayerGameStats(context.Background(), testOwner, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.PlayerGameStats{}, got)

	_, err = stats.PlayerGameStats(context.Background(), 2, f.game.ID)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}
