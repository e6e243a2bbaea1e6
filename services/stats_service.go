package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/repositories"
	"github.com/Dosada05/boardgame-tracker/scoring"
	"golang.org/x/sync/errgroup"
)

const statsLoadConcurrency = 4

type StatsService interface {
	// PlayerGameStats summarises every player's finished matches of a game.
	PlayerGameStats(ctx context.Context, ownerID, gameID int) ([]models.PlayerGameStats, error)
}

type statsService struct {
	gameRepo        repositories.GameRepository
	matchRepo       repositories.MatchRepository
	matchPlayerRepo repositories.MatchPlayerRepository
	scoresheetRepo  repositories.ScoresheetRepository
	playerRepo      repositories.PlayerRepository
	logger          *slog.Logger
}

func NewStatsService(
	gameRepo repositories.GameRepository,
	matchRepo repositories.MatchRepository,
	matchPlayerRepo repositories.MatchPlayerRepository,
	scoresheetRepo repositories.ScoresheetRepository,
	playerRepo repositories.PlayerRepository,
	logger *slog.Logger,
) StatsService {
	return &statsService{
		gameRepo:        gameRepo,
		matchRepo:       matchRepo,
		matchPlayerRepo: matchPlayerRepo,
		scoresheetRepo:  scoresheetRepo,
		playerRepo:      playerRepo,
		logger:          logger,
	}
}

type playerTally struct {
	stats     models.PlayerGameStats
	scoreSum  float64
	scored    int
	placeSum  int
	placed    int
	bestScore *float64
}

func (s *statsService) PlayerGameStats(ctx context.Context, ownerID, gameID int) ([]models.PlayerGameStats, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", gameID, err)
	}
	if game.OwnerID != ownerID {
		return nil, ErrForbiddenOperation
	}

	matches, err := s.matchRepo.ListFinishedByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished matches of game %d: %w", gameID, err)
	}
	if len(matches) == 0 {
		return []models.PlayerGameStats{}, nil
	}

	matchIDs := make([]int, len(matches))
	sheetIDs := make([]int, 0)
	seenSheet := make(map[int]struct{})
	for i, m := range matches {
		matchIDs[i] = m.ID
		if _, ok := seenSheet[m.ScoresheetID]; !ok {
			seenSheet[m.ScoresheetID] = struct{}{}
			sheetIDs = append(sheetIDs, m.ScoresheetID)
		}
	}

	var (
		seats   []models.MatchPlayer
		players []models.Player
		mu      sync.Mutex
		sheets  = make(map[int]*models.Scoresheet, len(sheetIDs))
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(statsLoadConcurrency)
	g.Go(func() error {
		loaded, err := s.matchPlayerRepo.ListByMatches(gCtx, matchIDs)
		if err != nil {
			return fmt.Errorf("failed to list match players: %w", err)
		}
		seats = loaded
		return nil
	})
	g.Go(func() error {
		loaded, err := s.playerRepo.ListByOwner(gCtx, ownerID)
		if err != nil {
			return fmt.Errorf("failed to list players: %w", err)
		}
		players = loaded
		return nil
	})
	for _, id := range sheetIDs {
		id := id
		g.Go(func() error {
			sheet, err := s.scoresheetRepo.GetByID(gCtx, id)
			if err != nil {
				return fmt.Errorf("failed to get scoresheet %d: %w", id, err)
			}
			mu.Lock()
			sheets[id] = sheet
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[int]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}

	seatsByMatch := make(map[int][]models.MatchPlayer)
	for _, seat := range seats {
		seatsByMatch[seat.MatchID] = append(seatsByMatch[seat.MatchID], seat)
	}

	tallies := make(map[int]*playerTally)
	for _, m := range matches {
		sheet := sheets[m.ScoresheetID]
		matchSeats := seatsByMatch[m.ID]
		results := resultsForStats(sheet, matchSeats)

		playerBySeat := make(map[int]int, len(matchSeats))
		for _, seat := range matchSeats {
			playerBySeat[seat.ID] = seat.PlayerID
		}

		for _, r := range results {
			playerID := playerBySeat[r.SeatID]
			t, ok := tallies[playerID]
			if !ok {
				t = &playerTally{
					stats: models.PlayerGameStats{PlayerID: playerID, PlayerName: names[playerID]},
				}
				tallies[playerID] = t
			}
			t.add(r, sheet.Config())
		}
	}

	out := make([]models.PlayerGameStats, 0, len(tallies))
	for _, t := range tallies {
		out = append(out, t.finish())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate > out[j].WinRate
		}
		return out[i].PlayerName < out[j].PlayerName
	})

	s.logger.DebugContext(ctx, "player stats computed",
		slog.Int("game_id", gameID), slog.Int("matches", len(matches)), slog.Int("players", len(out)))
	return out, nil
}

// resultsForStats reranks a finished match with the engine. Manually decided
// placements cannot be derived and are taken from storage.
func resultsForStats(sheet *models.Scoresheet, seats []models.MatchPlayer) []seatResult {
	if sheet.WinCondition == scoring.WinConditionManual {
		manual := make(map[int]int, len(seats))
		for _, seat := range seats {
			if seat.Placement != nil {
				manual[seat.ID] = *seat.Placement
			}
		}
		return computeResults(sheet, seats, manual)
	}
	return computeResults(sheet, seats, nil)
}

func (t *playerTally) add(r seatResult, cfg scoring.ScoresheetConfig) {
	t.stats.MatchesCount++
	if r.Winner {
		t.stats.Wins++
	}
	if r.Placement != nil {
		t.placeSum += *r.Placement
		t.placed++
	}
	if r.Score == nil {
		return
	}

	t.scoreSum += *r.Score
	t.scored++
	if t.bestScore == nil || betterScore(*r.Score, *t.bestScore, cfg) {
		v := *r.Score
		t.bestScore = &v
	}
}

func (t *playerTally) finish() models.PlayerGameStats {
	stats := t.stats
	if stats.MatchesCount > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.MatchesCount)
	}
	stats.BestScore = t.bestScore
	if t.scored > 0 {
		avg := t.scoreSum / float64(t.scored)
		stats.AverageScore = &avg
	}
	if t.placed > 0 {
		avg := float64(t.placeSum) / float64(t.placed)
		stats.AvgPlacement = &avg
	}
	return stats
}

// betterScore compares scores the way the scoresheet ranks them; sheets
// without an ordering treat higher as better.
func betterScore(a, b float64, cfg scoring.ScoresheetConfig) bool {
	switch cfg.WinCondition {
	case scoring.WinConditionLowestScore:
		return a < b
	case scoring.WinConditionTargetScore:
		if cfg.TargetScore != nil {
			return math.Abs(a-*cfg.TargetScore) < math.Abs(b-*cfg.TargetScore)
		}
	}
	return a > b
}
