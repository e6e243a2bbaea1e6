package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/boardgame-tracker/models"
)

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameNameConflict = errors.New("game name conflict")
)

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	ListByOwner(ctx context.Context, ownerID int) ([]models.Game, error)
	Update(ctx context.Context, game *models.Game) error
	UpdateImageKey(ctx context.Context, id int, key *string) error
	Delete(ctx context.Context, id int) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `id, name, description, owner_id, players_min, players_max, image_key, created_at`

func scanGame(scanner interface{ Scan(...interface{}) error }, game *models.Game) error {
	return scanner.Scan(
		&game.ID,
		&game.Name,
		&game.Description,
		&game.OwnerID,
		&game.PlayersMin,
		&game.PlayersMax,
		&game.ImageKey,
		&game.CreatedAt,
	)
}

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `
		INSERT INTO games (name, description, owner_id, players_min, players_max)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executorOr(exec, r.db).QueryRowContext(ctx, query,
		game.Name, game.Description, game.OwnerID, game.PlayersMin, game.PlayersMax,
	).Scan(&game.ID, &game.CreatedAt)
	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok && code == pqUniqueViolation && constraint == "games_owner_name_key" {
			return ErrGameNameConflict
		}
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	var game models.Game
	if err := scanGame(r.db.QueryRowContext(ctx, query, id), &game); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game by id %d: %w", id, err)
	}
	return &game, nil
}

func (r *postgresGameRepository) ListByOwner(ctx context.Context, ownerID int) ([]models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE owner_id = $1 ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	for rows.Next() {
		var game models.Game
		if err := scanGame(rows, &game); err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game rows: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) Update(ctx context.Context, game *models.Game) error {
	query := `
		UPDATE games SET name = $1, description = $2, players_min = $3, players_max = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query, game.Name, game.Description, game.PlayersMin, game.PlayersMax, game.ID)
	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok && code == pqUniqueViolation && constraint == "games_owner_name_key" {
			return ErrGameNameConflict
		}
		return fmt.Errorf("failed to update game %d: %w", game.ID, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) UpdateImageKey(ctx context.Context, id int, key *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE games SET image_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("failed to update image key for game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}
