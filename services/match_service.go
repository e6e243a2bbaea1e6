package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/boardgame-tracker/live"
	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/repositories"
	"github.com/Dosada05/boardgame-tracker/scoring"
	"github.com/Dosada05/boardgame-tracker/storage"
	"golang.org/x/sync/errgroup"
)

const coopTeamName = "Everyone"

// LiveBroadcaster delivers messages to clients watching a match.
type LiveBroadcaster interface {
	BroadcastToRoom(roomID string, message live.Message)
}

type MatchService interface {
	CreateMatch(ctx context.Context, ownerID int, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, ownerID, matchID int) (*models.Match, error)
	ListMatches(ctx context.Context, ownerID int, filter ListMatchesFilter) ([]models.Match, error)
	DeleteMatch(ctx context.Context, ownerID, matchID int) error

	// UpdateRoundScore records one round score for a seat and its teammates and
	// returns the recomputed final scores of the whole match.
	UpdateRoundScore(ctx context.Context, ownerID, matchID int, input UpdateRoundScoreInput) ([]scoring.FinalScoreResult, error)
	SetManualScore(ctx context.Context, ownerID, matchID int, input SetManualScoreInput) ([]scoring.FinalScoreResult, error)
	FinishMatch(ctx context.Context, ownerID, matchID int, input FinishMatchInput) (*models.MatchSummary, error)
	GetMatchSummary(ctx context.Context, ownerID, matchID int) (*models.MatchSummary, error)
}

type CreateMatchTeamInput struct {
	Name      string `json:"name"`
	PlayerIDs []int  `json:"player_ids"`
}

type CreateMatchInput struct {
	GameID int `json:"game_id"`
	// ScoresheetID defaults to the game's default scoresheet.
	ScoresheetID *int                   `json:"scoresheet_id"`
	Name         string                 `json:"name"`
	Location     *string                `json:"location"`
	Comment      *string                `json:"comment"`
	PlayedAt     *time.Time             `json:"played_at"`
	PlayerIDs    []int                  `json:"player_ids"`
	Teams        []CreateMatchTeamInput `json:"teams"`
}

type ListMatchesFilter struct {
	GameID *int
	Status *models.MatchStatus
}

type UpdateRoundScoreInput struct {
	MatchPlayerID int      `json:"match_player_id"`
	RoundID       int      `json:"round_id"`
	Score         *float64 `json:"score"`
}

type SetManualScoreInput struct {
	MatchPlayerID int      `json:"match_player_id"`
	Score         *float64 `json:"score"`
}

type FinishMatchInput struct {
	DurationSec int `json:"duration_sec"`
	// Placements maps match player id to placement. Only read for scoresheets
	// with the Manual win condition.
	Placements map[int]int `json:"placements"`
}

// ScoresUpdatedPayload is sent with live.MessageScoresUpdated.
type ScoresUpdatedPayload struct {
	MatchID   int                        `json:"match_id"`
	Scores    []scoring.FinalScoreResult `json:"scores"`
	Standings []models.MatchStanding     `json:"standings"`
}

type matchService struct {
	matchRepo       repositories.MatchRepository
	matchPlayerRepo repositories.MatchPlayerRepository
	gameRepo        repositories.GameRepository
	scoresheetRepo  repositories.ScoresheetRepository
	playerRepo      repositories.PlayerRepository
	tx              Transactor
	broadcaster     LiveBroadcaster
	uploader        storage.FileUploader
	logger          *slog.Logger
	now             func() time.Time
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	matchPlayerRepo repositories.MatchPlayerRepository,
	gameRepo repositories.GameRepository,
	scoresheetRepo repositories.ScoresheetRepository,
	playerRepo repositories.PlayerRepository,
	tx Transactor,
	broadcaster LiveBroadcaster,
	uploader storage.FileUploader,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:       matchRepo,
		matchPlayerRepo: matchPlayerRepo,
		gameRepo:        gameRepo,
		scoresheetRepo:  scoresheetRepo,
		playerRepo:      playerRepo,
		tx:              tx,
		broadcaster:     broadcaster,
		uploader:        uploader,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, ownerID int, input CreateMatchInput) (*models.Match, error) {
	game, err := s.gameRepo.GetByID(ctx, input.GameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", input.GameID, err)
	}
	if game.OwnerID != ownerID {
		return nil, ErrForbiddenOperation
	}

	sheet, err := s.resolveScoresheet(ctx, game.ID, input.ScoresheetID)
	if err != nil {
		return nil, err
	}

	teams := input.Teams
	individuals := input.PlayerIDs
	if sheet.IsCoop && len(teams) == 0 {
		teams = []CreateMatchTeamInput{{Name: coopTeamName, PlayerIDs: individuals}}
		individuals = nil
	}

	playerIDs, err := collectPlayerIDs(individuals, teams)
	if err != nil {
		return nil, err
	}
	if err := checkPlayerCount(game, len(playerIDs)); err != nil {
		return nil, err
	}
	players, err := s.ownedPlayers(ctx, ownerID, playerIDs)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	playedAt := s.now().UTC()
	if input.PlayedAt != nil {
		playedAt = input.PlayedAt.UTC()
	}
	if name == "" {
		name = fmt.Sprintf("%s %s", game.Name, playedAt.Format("2006-01-02"))
	}

	match := &models.Match{
		GameID:       game.ID,
		ScoresheetID: sheet.ID,
		OwnerID:      ownerID,
		Name:         name,
		Location:     trimmedPtr(input.Location),
		Comment:      trimmedPtr(input.Comment),
		PlayedAt:     playedAt,
		Status:       models.MatchStatusInProgress,
		Teams:        []models.MatchTeam{},
		Players:      []models.MatchPlayer{},
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return err
		}

		for i, t := range teams {
			team := models.MatchTeam{MatchID: match.ID, Name: strings.TrimSpace(t.Name)}
			if team.Name == "" {
				team.Name = fmt.Sprintf("Team %d", i+1)
			}
			if err := s.matchPlayerRepo.CreateTeam(ctx, exec, &team); err != nil {
				return err
			}
			match.Teams = append(match.Teams, team)

			for _, playerID := range t.PlayerIDs {
				teamID := team.ID
				if err := s.seat(ctx, exec, match, playerID, &teamID, players); err != nil {
					return err
				}
			}
		}

		for _, playerID := range individuals {
			if err := s.seat(ctx, exec, match, playerID, nil, players); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrMatchReferenceInvalid):
			return nil, fmt.Errorf("%w: game or scoresheet no longer exists", ErrValidationFailed)
		case errors.Is(err, repositories.ErrMatchPlayerDuplicate):
			return nil, ErrMatchDuplicatePlayer
		default:
			return nil, fmt.Errorf("failed to create match: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "match created",
		slog.Int("match_id", match.ID),
		slog.Int("game_id", game.ID),
		slog.Int("scoresheet_id", sheet.ID),
		slog.Int("players", len(match.Players)))
	return match, nil
}

func (s *matchService) seat(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, playerID int, teamID *int, players map[int]*models.Player) error {
	mp := models.MatchPlayer{
		MatchID:  match.ID,
		PlayerID: playerID,
		TeamID:   teamID,
		Rounds:   []models.RoundScore{},
		Player:   players[playerID],
	}
	if err := s.matchPlayerRepo.Create(ctx, exec, &mp); err != nil {
		return err
	}
	match.Players = append(match.Players, mp)
	return nil
}

func (s *matchService) GetMatch(ctx context.Context, ownerID, matchID int) (*models.Match, error) {
	match, err := s.ownedMatch(ctx, ownerID, matchID)
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.matchPlayerRepo.ListTeams(gCtx, matchID)
		if err != nil {
			return fmt.Errorf("failed to list teams of match %d: %w", matchID, err)
		}
		match.Teams = teams
		return nil
	})
	g.Go(func() error {
		seats, err := s.loadSeats(gCtx, matchID)
		if err != nil {
			return err
		}
		match.Players = seats
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, ownerID int, filter ListMatchesFilter) ([]models.Match, error) {
	matches, err := s.matchRepo.ListByOwner(ctx, ownerID, filter.GameID, filter.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, ownerID, matchID int) error {
	if _, err := s.ownedMatch(ctx, ownerID, matchID); err != nil {
		return err
	}
	if err := s.matchRepo.Delete(ctx, matchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to delete match %d: %w", matchID, err)
	}
	s.logger.InfoContext(ctx, "match deleted", slog.Int("match_id", matchID))
	return nil
}

func (s *matchService) UpdateRoundScore(ctx context.Context, ownerID, matchID int, input UpdateRoundScoreInput) ([]scoring.FinalScoreResult, error) {
	match, sheet, err := s.openMatch(ctx, ownerID, matchID)
	if err != nil {
		return nil, err
	}
	if sheet.RoundsScore == scoring.RoundsScoreManual {
		return nil, ErrManualScoreOnly
	}
	if !hasRound(sheet, input.RoundID) {
		return nil, ErrRoundNotInScoresheet
	}

	seats, err := s.loadSeats(ctx, match.ID)
	if err != nil {
		return nil, err
	}
	ids, err := seatAndTeammates(seats, input.MatchPlayerID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.matchPlayerRepo.UpsertRoundScore(ctx, exec, ids, input.RoundID, input.Score)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save round score: %w", err)
	}

	return s.publishScores(ctx, match, sheet)
}

func (s *matchService) SetManualScore(ctx context.Context, ownerID, matchID int, input SetManualScoreInput) ([]scoring.FinalScoreResult, error) {
	match, sheet, err := s.openMatch(ctx, ownerID, matchID)
	if err != nil {
		return nil, err
	}
	if sheet.RoundsScore != scoring.RoundsScoreManual {
		return nil, ErrRoundScoresOnly
	}

	seats, err := s.loadSeats(ctx, match.ID)
	if err != nil {
		return nil, err
	}
	ids, err := seatAndTeammates(seats, input.MatchPlayerID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.matchPlayerRepo.SetManualScore(ctx, exec, ids, input.Score)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save manual score: %w", err)
	}

	return s.publishScores(ctx, match, sheet)
}

// publishScores recomputes the match scores from storage and pushes them to
// the match room.
func (s *matchService) publishScores(ctx context.Context, match *models.Match, sheet *models.Scoresheet) ([]scoring.FinalScoreResult, error) {
	seats, err := s.loadSeats(ctx, match.ID)
	if err != nil {
		return nil, err
	}

	scores := finalScoresFor(sheet, seats)
	payload := ScoresUpdatedPayload{
		MatchID:   match.ID,
		Scores:    scores,
		Standings: standingsFrom(computeResults(sheet, seats, nil), seats),
	}
	s.broadcaster.BroadcastToRoom(live.MatchRoom(match.ID), live.Message{
		Type:    live.MessageScoresUpdated,
		Payload: payload,
	})
	return scores, nil
}

func (s *matchService) FinishMatch(ctx context.Context, ownerID, matchID int, input FinishMatchInput) (*models.MatchSummary, error) {
	match, sheet, err := s.openMatch(ctx, ownerID, matchID)
	if err != nil {
		return nil, err
	}
	if input.DurationSec < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", ErrValidationFailed)
	}

	seats, err := s.loadSeats(ctx, match.ID)
	if err != nil {
		return nil, err
	}

	var manual map[int]int
	if sheet.WinCondition == scoring.WinConditionManual {
		if err := validateManualPlacements(seats, input.Placements); err != nil {
			return nil, err
		}
		manual = input.Placements
	}

	results := computeResults(sheet, seats, manual)

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, r := range results {
			if err := s.matchPlayerRepo.SaveResult(ctx, exec, r.SeatID, r.Score, r.Placement, r.Winner); err != nil {
				return err
			}
		}
		return s.matchRepo.UpdateStatus(ctx, exec, match.ID, models.MatchStatusFinished, input.DurationSec)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to finish match %d: %w", matchID, err)
	}

	match.Status = models.MatchStatusFinished
	match.DurationSec = input.DurationSec
	applyResults(seats, results)
	match.Players = seats

	summary := &models.MatchSummary{
		Match:      match,
		Scoresheet: sheet,
		Standings:  standingsFrom(results, seats),
	}
	if game, err := s.gameRepo.GetByID(ctx, match.GameID); err == nil {
		populateGameImageURL(game, s.uploader)
		summary.Game = game
	} else {
		s.logger.WarnContext(ctx, "failed to load game for match summary", slog.Int("match_id", match.ID), slog.Any("error", err))
	}

	s.broadcaster.BroadcastToRoom(live.MatchRoom(match.ID), live.Message{
		Type:    live.MessageMatchFinished,
		Payload: summary,
	})
	s.logger.InfoContext(ctx, "match finished", slog.Int("match_id", match.ID), slog.Int("duration_sec", input.DurationSec))
	return summary, nil
}

func (s *matchService) GetMatchSummary(ctx context.Context, ownerID, matchID int) (*models.MatchSummary, error) {
	match, err := s.ownedMatch(ctx, ownerID, matchID)
	if err != nil {
		return nil, err
	}

	summary := &models.MatchSummary{Match: match}
	var seats []models.MatchPlayer

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		game, err := s.gameRepo.GetByID(gCtx, match.GameID)
		if err != nil {
			return fmt.Errorf("failed to get game %d: %w", match.GameID, err)
		}
		populateGameImageURL(game, s.uploader)
		summary.Game = game
		return nil
	})
	g.Go(func() error {
		sheet, err := s.scoresheetRepo.GetByID(gCtx, match.ScoresheetID)
		if err != nil {
			return fmt.Errorf("failed to get scoresheet %d: %w", match.ScoresheetID, err)
		}
		summary.Scoresheet = sheet
		return nil
	})
	g.Go(func() error {
		loaded, err := s.loadSeats(gCtx, match.ID)
		if err != nil {
			return err
		}
		seats = loaded
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	match.Players = seats
	if match.Status == models.MatchStatusFinished {
		summary.Standings = standingsFrom(storedResults(seats), seats)
	} else {
		summary.Standings = standingsFrom(computeResults(summary.Scoresheet, seats, nil), seats)
	}
	return summary, nil
}

func (s *matchService) ownedMatch(ctx context.Context, ownerID, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", matchID, err)
	}
	if match.OwnerID != ownerID {
		return nil, ErrForbiddenOperation
	}
	return match, nil
}

// openMatch loads a match that can still be scored, with its scoresheet.
func (s *matchService) openMatch(ctx context.Context, ownerID, matchID int) (*models.Match, *models.Scoresheet, error) {
	match, err := s.ownedMatch(ctx, ownerID, matchID)
	if err != nil {
		return nil, nil, err
	}
	if match.Status == models.MatchStatusFinished {
		return nil, nil, ErrMatchFinished
	}

	sheet, err := s.scoresheetRepo.GetByID(ctx, match.ScoresheetID)
	if err != nil {
		if errors.Is(err, repositories.ErrScoresheetNotFound) {
			return nil, nil, ErrScoresheetNotFound
		}
		return nil, nil, fmt.Errorf("failed to get scoresheet %d: %w", match.ScoresheetID, err)
	}
	return match, sheet, nil
}

// loadSeats returns the match seats with round scores and player details.
func (s *matchService) loadSeats(ctx context.Context, matchID int) ([]models.MatchPlayer, error) {
	seats, err := s.matchPlayerRepo.ListByMatches(ctx, []int{matchID})
	if err != nil {
		return nil, fmt.Errorf("failed to list players of match %d: %w", matchID, err)
	}
	if len(seats) == 0 {
		return seats, nil
	}

	ids := make([]int, len(seats))
	for i, seat := range seats {
		ids[i] = seat.PlayerID
	}
	players, err := s.playerRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load player details of match %d: %w", matchID, err)
	}

	byID := make(map[int]*models.Player, len(players))
	for i := range players {
		populatePlayerImageURL(&players[i], s.uploader)
		byID[players[i].ID] = &players[i]
	}
	for i := range seats {
		seats[i].Player = byID[seats[i].PlayerID]
	}
	return seats, nil
}

func (s *matchService) resolveScoresheet(ctx context.Context, gameID int, scoresheetID *int) (*models.Scoresheet, error) {
	if scoresheetID == nil {
		sheets, err := s.scoresheetRepo.ListByGame(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("failed to list scoresheets of game %d: %w", gameID, err)
		}
		for i := range sheets {
			if sheets[i].IsDefault {
				return &sheets[i], nil
			}
		}
		if len(sheets) > 0 {
			return &sheets[0], nil
		}
		return nil, ErrScoresheetNotFound
	}

	sheet, err := s.scoresheetRepo.GetByID(ctx, *scoresheetID)
	if err != nil {
		if errors.Is(err, repositories.ErrScoresheetNotFound) {
			return nil, ErrScoresheetNotFound
		}
		return nil, fmt.Errorf("failed to get scoresheet %d: %w", *scoresheetID, err)
	}
	if sheet.GameID != gameID {
		return nil, fmt.Errorf("%w: scoresheet %d belongs to another game", ErrValidationFailed, sheet.ID)
	}
	return sheet, nil
}

func (s *matchService) ownedPlayers(ctx context.Context, ownerID int, ids []int) (map[int]*models.Player, error) {
	players, err := s.playerRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}

	byID := make(map[int]*models.Player, len(players))
	for i := range players {
		if players[i].OwnerID != ownerID {
			return nil, ErrForbiddenOperation
		}
		populatePlayerImageURL(&players[i], s.uploader)
		byID[players[i].ID] = &players[i]
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: id %d", ErrPlayerNotFound, id)
		}
	}
	return byID, nil
}

func collectPlayerIDs(individuals []int, teams []CreateMatchTeamInput) ([]int, error) {
	seen := make(map[int]struct{})
	ids := make([]int, 0, len(individuals))
	add := func(id int) error {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: id %d", ErrMatchDuplicatePlayer, id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		return nil
	}

	for _, t := range teams {
		if len(t.PlayerIDs) == 0 {
			return nil, fmt.Errorf("%w: team %q has no players", ErrValidationFailed, t.Name)
		}
		for _, id := range t.PlayerIDs {
			if err := add(id); err != nil {
				return nil, err
			}
		}
	}
	for _, id := range individuals {
		if err := add(id); err != nil {
			return nil, err
		}
	}
	if len(ids) == 0 {
		return nil, ErrMatchNoPlayers
	}
	return ids, nil
}

func checkPlayerCount(game *models.Game, count int) error {
	if game.PlayersMin != nil && count < *game.PlayersMin {
		return fmt.Errorf("%w: %s needs at least %d players", ErrValidationFailed, game.Name, *game.PlayersMin)
	}
	if game.PlayersMax != nil && count > *game.PlayersMax {
		return fmt.Errorf("%w: %s allows at most %d players", ErrValidationFailed, game.Name, *game.PlayersMax)
	}
	return nil
}

func hasRound(sheet *models.Scoresheet, roundID int) bool {
	for _, r := range sheet.Rounds {
		if r.ID == roundID {
			return true
		}
	}
	return false
}

// seatAndTeammates returns the seat id followed by the ids of its teammates.
func seatAndTeammates(seats []models.MatchPlayer, matchPlayerID int) ([]int, error) {
	var target *models.MatchPlayer
	for i := range seats {
		if seats[i].ID == matchPlayerID {
			target = &seats[i]
			break
		}
	}
	if target == nil {
		return nil, ErrSeatNotInMatch
	}

	ids := []int{target.ID}
	if target.TeamID == nil {
		return ids, nil
	}
	for _, seat := range seats {
		if seat.ID != target.ID && seat.TeamID != nil && *seat.TeamID == *target.TeamID {
			ids = append(ids, seat.ID)
		}
	}
	return ids, nil
}

func validateManualPlacements(seats []models.MatchPlayer, placements map[int]int) error {
	teamPlacement := make(map[int]int)
	for _, seat := range seats {
		p, ok := placements[seat.ID]
		if !ok {
			return fmt.Errorf("%w: missing match player %d", ErrPlacementsRequired, seat.ID)
		}
		if p < 1 {
			return fmt.Errorf("%w: got %d for match player %d", ErrPlacementInvalid, p, seat.ID)
		}
		if seat.TeamID != nil {
			if prev, ok := teamPlacement[*seat.TeamID]; ok && prev != p {
				return fmt.Errorf("%w: teammates must share a placement", ErrPlacementInvalid)
			}
			teamPlacement[*seat.TeamID] = p
		}
	}
	for id := range placements {
		if _, err := seatAndTeammates(seats, id); err != nil {
			return fmt.Errorf("%w: match player %d", ErrSeatNotInMatch, id)
		}
	}
	return nil
}

func applyResults(seats []models.MatchPlayer, results []seatResult) {
	bySeat := make(map[int]seatResult, len(results))
	for _, r := range results {
		bySeat[r.SeatID] = r
	}
	for i := range seats {
		r := bySeat[seats[i].ID]
		seats[i].Score = r.Score
		seats[i].Placement = r.Placement
		seats[i].Winner = r.Winner
	}
}
