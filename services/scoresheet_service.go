package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/repositories"
	"github.com/Dosada05/boardgame-tracker/scoring"
	"gopkg.in/yaml.v3"
)

type ScoresheetService interface {
	CreateScoresheet(ctx context.Context, ownerID, gameID int, input CreateScoresheetInput) (*models.Scoresheet, error)
	GetScoresheet(ctx context.Context, ownerID, scoresheetID int) (*models.Scoresheet, error)
	ListScoresheets(ctx context.Context, ownerID, gameID int) ([]models.Scoresheet, error)
	DeleteScoresheet(ctx context.Context, ownerID, scoresheetID int) error
	// ImportTemplate creates every scoresheet listed in a YAML template document.
	// Either all of them are stored or none.
	ImportTemplate(ctx context.Context, ownerID, gameID int, document []byte) ([]models.Scoresheet, error)
}

type CreateScoresheetInput struct {
	Name         string               `json:"name" yaml:"name"`
	IsDefault    bool                 `json:"is_default" yaml:"is_default"`
	IsCoop       bool                 `json:"is_coop" yaml:"is_coop"`
	RoundsScore  scoring.RoundsScore  `json:"rounds_score" yaml:"rounds_score"`
	WinCondition scoring.WinCondition `json:"win_condition" yaml:"win_condition"`
	TargetScore  *float64             `json:"target_score" yaml:"target_score"`
	Rounds       []string             `json:"rounds" yaml:"rounds"`
}

// ScoresheetTemplate is the YAML document accepted by ImportTemplate.
//
//	scoresheets:
//	  - name: Standard
//	    rounds_score: Aggregate
//	    win_condition: Highest Score
//	    rounds: [Round 1, Round 2]
type ScoresheetTemplate struct {
	Scoresheets []CreateScoresheetInput `yaml:"scoresheets"`
}

type scoresheetService struct {
	scoresheetRepo repositories.ScoresheetRepository
	gameRepo       repositories.GameRepository
	tx             Transactor
	logger         *slog.Logger
}

func NewScoresheetService(
	scoresheetRepo repositories.ScoresheetRepository,
	gameRepo repositories.GameRepository,
	tx Transactor,
	logger *slog.Logger,
) ScoresheetService {
	return &scoresheetService{
		scoresheetRepo: scoresheetRepo,
		gameRepo:       gameRepo,
		tx:             tx,
		logger:         logger,
	}
}

func (s *scoresheetService) CreateScoresheet(ctx context.Context, ownerID, gameID int, input CreateScoresheetInput) (*models.Scoresheet, error) {
	if err := s.checkGameOwner(ctx, ownerID, gameID); err != nil {
		return nil, err
	}

	sheet, err := buildScoresheet(gameID, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.store(ctx, exec, sheet)
	})
	if err != nil {
		return nil, mapScoresheetRepoError(err)
	}

	s.logger.InfoContext(ctx, "scoresheet created",
		slog.Int("scoresheet_id", sheet.ID), slog.Int("game_id", gameID),
		slog.String("rounds_score", string(sheet.RoundsScore)), slog.String("win_condition", string(sheet.WinCondition)))
	return sheet, nil
}

func (s *scoresheetService) GetScoresheet(ctx context.Context, ownerID, scoresheetID int) (*models.Scoresheet, error) {
	sheet, err := s.scoresheetRepo.GetByID(ctx, scoresheetID)
	if err != nil {
		if errors.Is(err, repositories.ErrScoresheetNotFound) {
			return nil, ErrScoresheetNotFound
		}
		return nil, fmt.Errorf("failed to get scoresheet %d: %w", scoresheetID, err)
	}
	if err := s.checkGameOwner(ctx, ownerID, sheet.GameID); err != nil {
		return nil, err
	}
	return sheet, nil
}

func (s *scoresheetService) ListScoresheets(ctx context.Context, ownerID, gameID int) ([]models.Scoresheet, error) {
	if err := s.checkGameOwner(ctx, ownerID, gameID); err != nil {
		return nil, err
	}
	sheets, err := s.scoresheetRepo.ListByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scoresheets of game %d: %w", gameID, err)
	}
	return sheets, nil
}

func (s *scoresheetService) DeleteScoresheet(ctx context.Context, ownerID, scoresheetID int) error {
	if _, err := s.GetScoresheet(ctx, ownerID, scoresheetID); err != nil {
		return err
	}
	if err := s.scoresheetRepo.Delete(ctx, scoresheetID); err != nil {
		return mapScoresheetRepoError(err)
	}
	return nil
}

func (s *scoresheetService) ImportTemplate(ctx context.Context, ownerID, gameID int, document []byte) ([]models.Scoresheet, error) {
	if err := s.checkGameOwner(ctx, ownerID, gameID); err != nil {
		return nil, err
	}

	template, err := ParseScoresheetTemplate(bytes.NewReader(document))
	if err != nil {
		return nil, err
	}

	sheets := make([]*models.Scoresheet, 0, len(template.Scoresheets))
	defaults := 0
	for i, input := range template.Scoresheets {
		sheet, err := buildScoresheet(gameID, input)
		if err != nil {
			return nil, fmt.Errorf("%w: scoresheet #%d: %w", ErrTemplateInvalid, i+1, err)
		}
		if sheet.IsDefault {
			defaults++
		}
		sheets = append(sheets, sheet)
	}
	if defaults > 1 {
		return nil, fmt.Errorf("%w: only one scoresheet can be the default", ErrTemplateInvalid)
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, sheet := range sheets {
			if err := s.store(ctx, exec, sheet); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapScoresheetRepoError(err)
	}

	out := make([]models.Scoresheet, len(sheets))
	for i, sheet := range sheets {
		out[i] = *sheet
	}
	s.logger.InfoContext(ctx, "scoresheet template imported", slog.Int("game_id", gameID), slog.Int("count", len(out)))
	return out, nil
}

// ParseScoresheetTemplate decodes a template document, rejecting unknown keys.
func ParseScoresheetTemplate(r io.Reader) (*ScoresheetTemplate, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var template ScoresheetTemplate
	if err := decoder.Decode(&template); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: document is empty", ErrTemplateInvalid)
		}
		return nil, fmt.Errorf("%w: %w", ErrTemplateInvalid, err)
	}
	if len(template.Scoresheets) == 0 {
		return nil, fmt.Errorf("%w: no scoresheets listed", ErrTemplateInvalid)
	}
	return &template, nil
}

func (s *scoresheetService) store(ctx context.Context, exec repositories.SQLExecutor, sheet *models.Scoresheet) error {
	if sheet.IsDefault {
		if err := s.scoresheetRepo.ClearDefault(ctx, exec, sheet.GameID); err != nil {
			return err
		}
	}
	return s.scoresheetRepo.Create(ctx, exec, sheet)
}

func (s *scoresheetService) checkGameOwner(ctx context.Context, ownerID, gameID int) error {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to get game %d: %w", gameID, err)
	}
	if game.OwnerID != ownerID {
		return ErrForbiddenOperation
	}
	return nil
}

func buildScoresheet(gameID int, input CreateScoresheetInput) (*models.Scoresheet, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrScoresheetNameMissing
	}

	cfg := scoring.ScoresheetConfig{
		RoundsScore:  input.RoundsScore,
		WinCondition: input.WinCondition,
		TargetScore:  input.TargetScore,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScoresheetInvalid, err)
	}
	if cfg.WinCondition != scoring.WinConditionTargetScore {
		cfg.TargetScore = nil
	}

	rounds := make([]models.ScoresheetRound, 0, len(input.Rounds))
	for _, roundName := range input.Rounds {
		roundName = strings.TrimSpace(roundName)
		if roundName == "" {
			return nil, fmt.Errorf("%w: round name is empty", ErrScoresheetInvalid)
		}
		rounds = append(rounds, models.ScoresheetRound{Name: roundName, Order: len(rounds) + 1})
	}
	if len(rounds) == 0 && cfg.RoundsScore != scoring.RoundsScoreManual {
		return nil, ErrScoresheetNoRounds
	}

	return &models.Scoresheet{
		GameID:       gameID,
		Name:         name,
		IsDefault:    input.IsDefault,
		IsCoop:       input.IsCoop,
		RoundsScore:  cfg.RoundsScore,
		WinCondition: cfg.WinCondition,
		TargetScore:  cfg.TargetScore,
		Rounds:       rounds,
	}, nil
}

func mapScoresheetRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrScoresheetNameConflict):
		return ErrScoresheetNameConflict
	case errors.Is(err, repositories.ErrScoresheetInUse):
		return ErrScoresheetInUse
	case errors.Is(err, repositories.ErrScoresheetNotFound):
		return ErrScoresheetNotFound
	case errors.Is(err, repositories.ErrScoresheetGameInvalid):
		return ErrGameNotFound
	default:
		return fmt.Errorf("scoresheet storage failed: %w", err)
	}
}
