package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/repositories"
	"github.com/Dosada05/boardgame-tracker/scoring"
	"github.com/Dosada05/boardgame-tracker/storage"
)

const (
	defaultScoresheetName  = "Standard"
	defaultScoresheetRound = "Score"
	gameImageKind          = "games"
)

type GameService interface {
	CreateGame(ctx context.Context, ownerID int, input CreateGameInput) (*models.Game, error)
	GetGame(ctx context.Context, ownerID, gameID int) (*models.Game, error)
	ListGames(ctx context.Context, ownerID int) ([]models.Game, error)
	SearchGames(ctx context.Context, ownerID int, query string) ([]models.Game, error)
	UpdateGame(ctx context.Context, ownerID, gameID int, input UpdateGameInput) (*models.Game, error)
	DeleteGame(ctx context.Context, ownerID, gameID int) error
	UploadGameImage(ctx context.Context, ownerID, gameID int, file io.Reader, contentType string) (*models.Game, error)
}

type CreateGameInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	PlayersMin  *int    `json:"players_min"`
	PlayersMax  *int    `json:"players_max"`
}

type UpdateGameInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PlayersMin  *int    `json:"players_min"`
	PlayersMax  *int    `json:"players_max"`
}

type gameService struct {
	gameRepo       repositories.GameRepository
	scoresheetRepo repositories.ScoresheetRepository
	tx             Transactor
	uploader       storage.FileUploader
	logger         *slog.Logger
	now            func() time.Time
}

func NewGameService(
	gameRepo repositories.GameRepository,
	scoresheetRepo repositories.ScoresheetRepository,
	tx Transactor,
	uploader storage.FileUploader,
	logger *slog.Logger,
) GameService {
	return &gameService{
		gameRepo:       gameRepo,
		scoresheetRepo: scoresheetRepo,
		tx:             tx,
		uploader:       uploader,
		logger:         logger,
		now:            time.Now,
	}
}

// CreateGame stores the game together with a default Aggregate / Highest Score
// scoresheet so a match can be started right away.
func (s *gameService) CreateGame(ctx context.Context, ownerID int, input CreateGameInput) (*models.Game, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrGameNameRequired
	}
	if err := validatePlayersRange(input.PlayersMin, input.PlayersMax); err != nil {
		return nil, err
	}

	game := &models.Game{
		Name:        name,
		Description: trimmedPtr(input.Description),
		OwnerID:     ownerID,
		PlayersMin:  input.PlayersMin,
		PlayersMax:  input.PlayersMax,
	}
	sheet := &models.Scoresheet{
		Name:         defaultScoresheetName,
		IsDefault:    true,
		RoundsScore:  scoring.RoundsScoreAggregate,
		WinCondition: scoring.WinConditionHighestScore,
		Rounds:       []models.ScoresheetRound{{Name: defaultScoresheetRound, Order: 1}},
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.gameRepo.Create(ctx, exec, game); err != nil {
			return err
		}
		sheet.GameID = game.ID
		return s.scoresheetRepo.Create(ctx, exec, sheet)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrGameNameConflict) {
			return nil, ErrGameNameConflict
		}
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	game.Scoresheets = []models.Scoresheet{*sheet}
	s.logger.InfoContext(ctx, "game created", slog.Int("game_id", game.ID), slog.Int("owner_id", ownerID))
	return game, nil
}

func (s *gameService) GetGame(ctx context.Context, ownerID, gameID int) (*models.Game, error) {
	game, err := s.ownedGame(ctx, ownerID, gameID)
	if err != nil {
		return nil, err
	}

	sheets, err := s.scoresheetRepo.ListByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scoresheets of game %d: %w", gameID, err)
	}
	game.Scoresheets = sheets
	return game, nil
}

func (s *gameService) ListGames(ctx context.Context, ownerID int) ([]models.Game, error) {
	games, err := s.gameRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	for i := range games {
		populateGameImageURL(&games[i], s.uploader)
	}
	return games, nil
}

func (s *gameService) SearchGames(ctx context.Context, ownerID int, query string) ([]models.Game, error) {
	games, err := s.ListGames(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(games))
	for i, g := range games {
		names[i] = g.Name
	}

	ranked := fuzzyRank(query, names)
	out := make([]models.Game, 0, len(ranked))
	for _, idx := range ranked {
		out = append(out, games[idx])
	}
	return out, nil
}

func (s *gameService) UpdateGame(ctx context.Context, ownerID, gameID int, input UpdateGameInput) (*models.Game, error) {
	game, err := s.ownedGame(ctx, ownerID, gameID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrGameNameRequired
		}
		game.Name = name
	}
	if input.Description != nil {
		game.Description = trimmedPtr(input.Description)
	}
	if input.PlayersMin != nil {
		game.PlayersMin = input.PlayersMin
	}
	if input.PlayersMax != nil {
		game.PlayersMax = input.PlayersMax
	}
	if err := validatePlayersRange(game.PlayersMin, game.PlayersMax); err != nil {
		return nil, err
	}

	if err := s.gameRepo.Update(ctx, game); err != nil {
		switch {
		case errors.Is(err, repositories.ErrGameNameConflict):
			return nil, ErrGameNameConflict
		case errors.Is(err, repositories.ErrGameNotFound):
			return nil, ErrGameNotFound
		default:
			return nil, fmt.Errorf("failed to update game %d: %w", gameID, err)
		}
	}
	return game, nil
}

func (s *gameService) DeleteGame(ctx context.Context, ownerID, gameID int) error {
	game, err := s.ownedGame(ctx, ownerID, gameID)
	if err != nil {
		return err
	}

	if err := s.gameRepo.Delete(ctx, gameID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to delete game %d: %w", gameID, err)
	}

	if game.ImageKey != nil {
		s.deleteObject(ctx, *game.ImageKey)
	}
	return nil
}

func (s *gameService) UploadGameImage(ctx context.Context, ownerID, gameID int, file io.Reader, contentType string) (*models.Game, error) {
	game, err := s.ownedGame(ctx, ownerID, gameID)
	if err != nil {
		return nil, err
	}

	key, err := uploadImage(ctx, s.uploader, gameImageKind, gameID, file, contentType, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.gameRepo.UpdateImageKey(ctx, gameID, &key); err != nil {
		s.deleteObject(ctx, key)
		return nil, fmt.Errorf("failed to store image key for game %d: %w", gameID, err)
	}

	if game.ImageKey != nil && *game.ImageKey != key {
		s.deleteObject(ctx, *game.ImageKey)
	}

	game.ImageKey = &key
	game.ImageURL = nil
	populateGameImageURL(game, s.uploader)
	return game, nil
}

func (s *gameService) ownedGame(ctx context.Context, ownerID, gameID int) (*models.Game, error) {
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
	populateGameImageURL(game, s.uploader)
	return game, nil
}

func (s *gameService) deleteObject(ctx context.Context, key string) {
	if err := s.uploader.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete stored image", slog.String("key", key), slog.Any("error", err))
	}
}

func validatePlayersRange(minPlayers, maxPlayers *int) error {
	if minPlayers != nil && *minPlayers < 1 {
		return fmt.Errorf("%w: minimum players must be at least 1", ErrValidationFailed)
	}
	if minPlayers != nil && maxPlayers != nil && *minPlayers > *maxPlayers {
		return ErrPlayersRangeInvalid
	}
	return nil
}
