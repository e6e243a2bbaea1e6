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
	"github.com/Dosada05/boardgame-tracker/storage"
)

const playerImageKind = "players"

type PlayerService interface {
	CreatePlayer(ctx context.Context, ownerID int, input CreatePlayerInput) (*models.Player, error)
	GetPlayer(ctx context.Context, ownerID, playerID int) (*models.Player, error)
	ListPlayers(ctx context.Context, ownerID int) ([]models.Player, error)
	SearchPlayers(ctx context.Context, ownerID int, query string) ([]models.Player, error)
	UpdatePlayer(ctx context.Context, ownerID, playerID int, input UpdatePlayerInput) (*models.Player, error)
	DeletePlayer(ctx context.Context, ownerID, playerID int) error
	UploadPlayerImage(ctx context.Context, ownerID, playerID int, file io.Reader, contentType string) (*models.Player, error)
}

type CreatePlayerInput struct {
	Name   string `json:"name"`
	UserID *int   `json:"user_id"`
}

type UpdatePlayerInput struct {
	Name   *string `json:"name"`
	UserID *int    `json:"user_id"`
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	userRepo   repositories.UserRepository
	uploader   storage.FileUploader
	logger     *slog.Logger
	now        func() time.Time
}

func NewPlayerService(
	playerRepo repositories.PlayerRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		userRepo:   userRepo,
		uploader:   uploader,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *playerService) CreatePlayer(ctx context.Context, ownerID int, input CreatePlayerInput) (*models.Player, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrPlayerNameRequired
	}
	if err := s.checkLinkedUser(ctx, input.UserID); err != nil {
		return nil, err
	}

	player := &models.Player{
		OwnerID: ownerID,
		Name:    name,
		UserID:  input.UserID,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerNameConflict) {
			return nil, ErrPlayerNameConflict
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

func (s *playerService) GetPlayer(ctx context.Context, ownerID, playerID int) (*models.Player, error) {
	return s.ownedPlayer(ctx, ownerID, playerID)
}

func (s *playerService) ListPlayers(ctx context.Context, ownerID int) ([]models.Player, error) {
	players, err := s.playerRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	for i := range players {
		populatePlayerImageURL(&players[i], s.uploader)
	}
	return players, nil
}

func (s *playerService) SearchPlayers(ctx context.Context, ownerID int, query string) ([]models.Player, error) {
	players, err := s.ListPlayers(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}

	ranked := fuzzyRank(query, names)
	out := make([]models.Player, 0, len(ranked))
	for _, idx := range ranked {
		out = append(out, players[idx])
	}
	return out, nil
}

func (s *playerService) UpdatePlayer(ctx context.Context, ownerID, playerID int, input UpdatePlayerInput) (*models.Player, error) {
	player, err := s.ownedPlayer(ctx, ownerID, playerID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrPlayerNameRequired
		}
		player.Name = name
	}
	if input.UserID != nil {
		if err := s.checkLinkedUser(ctx, input.UserID); err != nil {
			return nil, err
		}
		player.UserID = input.UserID
	}

	if err := s.playerRepo.Update(ctx, player); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerNameConflict):
			return nil, ErrPlayerNameConflict
		case errors.Is(err, repositories.ErrPlayerNotFound):
			return nil, ErrPlayerNotFound
		default:
			return nil, fmt.Errorf("failed to update player %d: %w", playerID, err)
		}
	}
	return player, nil
}

func (s *playerService) DeletePlayer(ctx context.Context, ownerID, playerID int) error {
	player, err := s.ownedPlayer(ctx, ownerID, playerID)
	if err != nil {
		return err
	}

	if err := s.playerRepo.Delete(ctx, playerID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerInUse):
			return ErrPlayerInUse
		case errors.Is(err, repositories.ErrPlayerNotFound):
			return ErrPlayerNotFound
		default:
			return fmt.Errorf("failed to delete player %d: %w", playerID, err)
		}
	}

	if player.ImageKey != nil {
		if err := s.uploader.Delete(ctx, *player.ImageKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete player image", slog.String("key", *player.ImageKey), slog.Any("error", err))
		}
	}
	return nil
}

func (s *playerService) UploadPlayerImage(ctx context.Context, ownerID, playerID int, file io.Reader, contentType string) (*models.Player, error) {
	player, err := s.ownedPlayer(ctx, ownerID, playerID)
	if err != nil {
		return nil, err
	}

	key, err := uploadImage(ctx, s.uploader, playerImageKind, playerID, file, contentType, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.playerRepo.UpdateImageKey(ctx, playerID, &key); err != nil {
		_ = s.uploader.Delete(ctx, key)
		return nil, fmt.Errorf("failed to store image key for player %d: %w", playerID, err)
	}

	if old := player.ImageKey; old != nil && *old != key {
		if err := s.uploader.Delete(ctx, *old); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous player image", slog.String("key", *old), slog.Any("error", err))
		}
	}

	player.ImageKey = &key
	player.ImageURL = nil
	populatePlayerImageURL(player, s.uploader)
	return player, nil
}

func (s *playerService) ownedPlayer(ctx context.Context, ownerID, playerID int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player %d: %w", playerID, err)
	}
	if player.OwnerID != ownerID {
		return nil, ErrForbiddenOperation
	}
	populatePlayerImageURL(player, s.uploader)
	return player, nil
}

func (s *playerService) checkLinkedUser(ctx context.Context, userID *int) error {
	if userID == nil {
		return nil
	}
	if _, err := s.userRepo.GetByID(ctx, *userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to check linked user %d: %w", *userID, err)
	}
	return nil
}
