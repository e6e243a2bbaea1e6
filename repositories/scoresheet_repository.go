package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/lib/pq"
)

var (
	ErrScoresheetNotFound     = errors.New("scoresheet not found")
	ErrScoresheetNameConflict = errors.New("scoresheet name conflict")
	ErrScoresheetInUse        = errors.New("scoresheet is used by matches")
	ErrScoresheetGameInvalid  = errors.New("scoresheet game conflict or invalid")
)

type ScoresheetRepository interface {
	// Create inserts the scoresheet and its rounds; Rounds get their ids filled in.
	Create(ctx context.Context, exec SQLExecutor, sheet *models.Scoresheet) error
	GetByID(ctx context.Context, id int) (*models.Scoresheet, error)
	ListByGame(ctx context.Context, gameID int) ([]models.Scoresheet, error)
	ClearDefault(ctx context.Context, exec SQLExecutor, gameID int) error
	Delete(ctx context.Context, id int) error
}

type postgresScoresheetRepository struct {
	db *sql.DB
}

func NewPostgresScoresheetRepository(db *sql.DB) ScoresheetRepository {
	return &postgresScoresheetRepository{db: db}
}

const scoresheetColumns = `id, game_id, name, is_default, is_coop, rounds_score, win_condition, target_score`

func (r *postgresScoresheetRepository) Create(ctx context.Context, exec SQLExecutor, sheet *models.Scoresheet) error {
	executor := executorOr(exec, r.db)

	query := `
		INSERT INTO scoresheets (game_id, name, is_default, is_coop, rounds_score, win_condition, target_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		sheet.GameID,
		sheet.Name,
		sheet.IsDefault,
		sheet.IsCoop,
		sheet.RoundsScore,
		sheet.WinCondition,
		sheet.TargetScore,
	).Scan(&sheet.ID)
	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok {
			switch {
			case code == pqUniqueViolation && constraint == "scoresheets_game_name_key":
				return ErrScoresheetNameConflict
			case code == pqForeignKeyViolation:
				return ErrScoresheetGameInvalid
			}
		}
		return fmt.Errorf("failed to insert scoresheet: %w", err)
	}

	roundQuery := `
		INSERT INTO scoresheet_rounds (scoresheet_id, name, round_order)
		VALUES ($1, $2, $3)
		RETURNING id`
	for i := range sheet.Rounds {
		round := &sheet.Rounds[i]
		round.ScoresheetID = sheet.ID
		if err := executor.QueryRowContext(ctx, roundQuery, sheet.ID, round.Name, round.Order).Scan(&round.ID); err != nil {
			return fmt.Errorf("failed to insert round %q for scoresheet %d: %w", round.Name, sheet.ID, err)
		}
	}
	return nil
}

func (r *postgresScoresheetRepository) GetByID(ctx context.Context, id int) (*models.Scoresheet, error) {
	query := `SELECT ` + scoresheetColumns + ` FROM scoresheets WHERE id = $1`

	var sheet models.Scoresheet
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sheet.ID, &sheet.GameID, &sheet.Name, &sheet.IsDefault, &sheet.IsCoop,
		&sheet.RoundsScore, &sheet.WinCondition, &sheet.TargetScore,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScoresheetNotFound
		}
		return nil, fmt.Errorf("failed to scan scoresheet by id %d: %w", id, err)
	}

	rounds, err := r.listRounds(ctx, []int{sheet.ID})
	if err != nil {
		return nil, err
	}
	sheet.Rounds = rounds[sheet.ID]
	if sheet.Rounds == nil {
		sheet.Rounds = []models.ScoresheetRound{}
	}
	return &sheet, nil
}

func (r *postgresScoresheetRepository) ListByGame(ctx context.Context, gameID int) ([]models.Scoresheet, error) {
	query := `SELECT ` + scoresheetColumns + ` FROM scoresheets WHERE game_id = $1 ORDER BY is_default DESC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scoresheets for game %d: %w", gameID, err)
	}
	defer rows.Close()

	sheets := make([]models.Scoresheet, 0)
	ids := make([]int, 0)
	for rows.Next() {
		var sheet models.Scoresheet
		if err := rows.Scan(
			&sheet.ID, &sheet.GameID, &sheet.Name, &sheet.IsDefault, &sheet.IsCoop,
			&sheet.RoundsScore, &sheet.WinCondition, &sheet.TargetScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan scoresheet row: %w", err)
		}
		sheets = append(sheets, sheet)
		ids = append(ids, sheet.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scoresheet rows: %w", err)
	}

	if len(ids) == 0 {
		return sheets, nil
	}
	rounds, err := r.listRounds(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sheets {
		sheets[i].Rounds = rounds[sheets[i].ID]
		if sheets[i].Rounds == nil {
			sheets[i].Rounds = []models.ScoresheetRound{}
		}
	}
	return sheets, nil
}

func (r *postgresScoresheetRepository) listRounds(ctx context.Context, sheetIDs []int) (map[int][]models.ScoresheetRound, error) {
	query := `
		SELECT id, scoresheet_id, name, round_order
		FROM scoresheet_rounds
		WHERE scoresheet_id = ANY($1)
		ORDER BY scoresheet_id, round_order, id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(sheetIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list scoresheet rounds: %w", err)
	}
	defer rows.Close()

	result := make(map[int][]models.ScoresheetRound, len(sheetIDs))
	for rows.Next() {
		var round models.ScoresheetRound
		if err := rows.Scan(&round.ID, &round.ScoresheetID, &round.Name, &round.Order); err != nil {
			return nil, fmt.Errorf("failed to scan scoresheet round: %w", err)
		}
		result[round.ScoresheetID] = append(result[round.ScoresheetID], round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scoresheet rounds: %w", err)
	}
	return result, nil
}

func (r *postgresScoresheetRepository) ClearDefault(ctx context.Context, exec SQLExecutor, gameID int) error {
	_, err := executorOr(exec, r.db).ExecContext(ctx, `UPDATE scoresheets SET is_default = FALSE WHERE game_id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("failed to clear default scoresheet for game %d: %w", gameID, err)
	}
	return nil
}

func (r *postgresScoresheetRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scoresheets WHERE id = $1`, id)
	if err != nil {
		if code, _, ok := pqConstraint(err); ok && code == pqForeignKeyViolation {
			return ErrScoresheetInUse
		}
		return fmt.Errorf("failed to delete scoresheet %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrScoresheetNotFound)
}
