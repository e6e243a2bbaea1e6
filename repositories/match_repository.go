package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/boardgame-tracker/models"
)

var (
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchReferenceInvalid = errors.New("match game or scoresheet conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByOwner(ctx context.Context, ownerID int, gameID *int, status *models.MatchStatus) ([]models.Match, error)
	ListFinishedByGame(ctx context.Context, gameID int) ([]models.Match, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus, durationSec int) error
	Delete(ctx context.Context, id int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, game_id, scoresheet_id, owner_id, name, location, comment, played_at, status, duration_sec, created_at`

func scanMatch(scanner interface{ Scan(...interface{}) error }, m *models.Match) error {
	return scanner.Scan(
		&m.ID,
		&m.GameID,
		&m.ScoresheetID,
		&m.OwnerID,
		&m.Name,
		&m.Location,
		&m.Comment,
		&m.PlayedAt,
		&m.Status,
		&m.DurationSec,
		&m.CreatedAt,
	)
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (game_id, scoresheet_id, owner_id, name, location, comment, played_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := executorOr(exec, r.db).QueryRowContext(ctx, query,
		match.GameID,
		match.ScoresheetID,
		match.OwnerID,
		match.Name,
		match.Location,
		match.Comment,
		match.PlayedAt,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		if code, _, ok := pqConstraint(err); ok && code == pqForeignKeyViolation {
			return ErrMatchReferenceInvalid
		}
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	var match models.Match
	if err := scanMatch(r.db.QueryRowContext(ctx, query, id), &match); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return &match, nil
}

func (r *postgresMatchRepository) ListByOwner(ctx context.Context, ownerID int, gameFilter *int, statusFilter *models.MatchStatus) ([]models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE owner_id = $1`)

	args := []interface{}{ownerID}
	placeholderIndex := 2

	if gameFilter != nil {
		queryBuilder.WriteString(" AND game_id = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *gameFilter)
		placeholderIndex++
	}
	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *statusFilter)
	}
	queryBuilder.WriteString(" ORDER BY played_at DESC, id DESC")

	return r.list(ctx, queryBuilder.String(), args...)
}

func (r *postgresMatchRepository) ListFinishedByGame(ctx context.Context, gameID int) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE game_id = $1 AND status = $2 ORDER BY played_at ASC, id ASC`
	return r.list(ctx, query, gameID, models.MatchStatusFinished)
}

func (r *postgresMatchRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var match models.Match
		if err := scanMatch(rows, &match); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus, durationSec int) error {
	result, err := executorOr(exec, r.db).ExecContext(ctx,
		`UPDATE matches SET status = $1, duration_sec = $2 WHERE id = $3`, status, durationSec, id)
	if err != nil {
		return fmt.Errorf("failed to update status of match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
