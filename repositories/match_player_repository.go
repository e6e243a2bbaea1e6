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
	ErrMatchPlayerNotFound  = errors.New("match player not found")
	ErrMatchPlayerDuplicate = errors.New("player is already seated in this match")
	ErrMatchPlayerInvalid   = errors.New("match player reference conflict or invalid")
)

type MatchPlayerRepository interface {
	CreateTeam(ctx context.Context, exec SQLExecutor, team *models.MatchTeam) error
	ListTeams(ctx context.Context, matchID int) ([]models.MatchTeam, error)

	Create(ctx context.Context, exec SQLExecutor, mp *models.MatchPlayer) error
	GetByID(ctx context.Context, id int) (*models.MatchPlayer, error)
	// ListByMatches returns seats of the given matches with their round scores loaded.
	ListByMatches(ctx context.Context, matchIDs []int) ([]models.MatchPlayer, error)

	// UpsertRoundScore writes the same score for every listed seat.
	UpsertRoundScore(ctx context.Context, exec SQLExecutor, matchPlayerIDs []int, roundID int, score *float64) error
	SetManualScore(ctx context.Context, exec SQLExecutor, matchPlayerIDs []int, score *float64) error
	SaveResult(ctx context.Context, exec SQLExecutor, id int, score *float64, placement *int, winner bool) error
}

type postgresMatchPlayerRepository struct {
	db *sql.DB
}

func NewPostgresMatchPlayerRepository(db *sql.DB) MatchPlayerRepository {
	return &postgresMatchPlayerRepository{db: db}
}

const matchPlayerColumns = `id, match_id, player_id, team_id, manual_score, score, placement, winner`

func scanMatchPlayer(scanner interface{ Scan(...interface{}) error }, mp *models.MatchPlayer) error {
	return scanner.Scan(
		&mp.ID,
		&mp.MatchID,
		&mp.PlayerID,
		&mp.TeamID,
		&mp.ManualScore,
		&mp.Score,
		&mp.Placement,
		&mp.Winner,
	)
}

func (r *postgresMatchPlayerRepository) CreateTeam(ctx context.Context, exec SQLExecutor, team *models.MatchTeam) error {
	err := executorOr(exec, r.db).QueryRowContext(ctx,
		`INSERT INTO match_teams (match_id, name) VALUES ($1, $2) RETURNING id`,
		team.MatchID, team.Name,
	).Scan(&team.ID)
	if err != nil {
		return fmt.Errorf("failed to insert team %q for match %d: %w", team.Name, team.MatchID, err)
	}
	return nil
}

func (r *postgresMatchPlayerRepository) ListTeams(ctx context.Context, matchID int) ([]models.MatchTeam, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, match_id, name FROM match_teams WHERE match_id = $1 ORDER BY id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for match %d: %w", matchID, err)
	}
	defer rows.Close()

	teams := make([]models.MatchTeam, 0)
	for rows.Next() {
		var team models.MatchTeam
		if err := rows.Scan(&team.ID, &team.MatchID, &team.Name); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team rows: %w", err)
	}
	return teams, nil
}

func (r *postgresMatchPlayerRepository) Create(ctx context.Context, exec SQLExecutor, mp *models.MatchPlayer) error {
	err := executorOr(exec, r.db).QueryRowContext(ctx,
		`INSERT INTO match_players (match_id, player_id, team_id) VALUES ($1, $2, $3) RETURNING id`,
		mp.MatchID, mp.PlayerID, mp.TeamID,
	).Scan(&mp.ID)
	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok {
			switch {
			case code == pqUniqueViolation && constraint == "match_players_match_player_key":
				return ErrMatchPlayerDuplicate
			case code == pqForeignKeyViolation:
				return ErrMatchPlayerInvalid
			}
		}
		return fmt.Errorf("failed to insert match player: %w", err)
	}
	return nil
}

func (r *postgresMatchPlayerRepository) GetByID(ctx context.Context, id int) (*models.MatchPlayer, error) {
	query := `SELECT ` + matchPlayerColumns + ` FROM match_players WHERE id = $1`

	var mp models.MatchPlayer
	if err := scanMatchPlayer(r.db.QueryRowContext(ctx, query, id), &mp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan match player by id %d: %w", id, err)
	}
	return &mp, nil
}

func (r *postgresMatchPlayerRepository) ListByMatches(ctx context.Context, matchIDs []int) ([]models.MatchPlayer, error) {
	if len(matchIDs) == 0 {
		return []models.MatchPlayer{}, nil
	}

	query := `SELECT ` + matchPlayerColumns + ` FROM match_players WHERE match_id = ANY($1) ORDER BY match_id, id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(matchIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list match players: %w", err)
	}
	defer rows.Close()

	players := make([]models.MatchPlayer, 0)
	index := make(map[int]int)
	ids := make([]int, 0)
	for rows.Next() {
		var mp models.MatchPlayer
		if err := scanMatchPlayer(rows, &mp); err != nil {
			return nil, fmt.Errorf("failed to scan match player row: %w", err)
		}
		mp.Rounds = []models.RoundScore{}
		index[mp.ID] = len(players)
		ids = append(ids, mp.ID)
		players = append(players, mp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match player rows: %w", err)
	}
	if len(ids) == 0 {
		return players, nil
	}

	// Очки раундов подгружаем одним запросом для всех мест.
	roundRows, err := r.db.QueryContext(ctx, `
		SELECT rs.match_player_id, rs.round_id, rs.score
		FROM round_scores rs
		JOIN scoresheet_rounds sr ON sr.id = rs.round_id
		WHERE rs.match_player_id = ANY($1)
		ORDER BY rs.match_player_id, sr.round_order, sr.id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list round scores: %w", err)
	}
	defer roundRows.Close()

	for roundRows.Next() {
		var rs models.RoundScore
		if err := roundRows.Scan(&rs.MatchPlayerID, &rs.RoundID, &rs.Score); err != nil {
			return nil, fmt.Errorf("failed to scan round score row: %w", err)
		}
		if i, ok := index[rs.MatchPlayerID]; ok {
			players[i].Rounds = append(players[i].Rounds, rs)
		}
	}
	if err := roundRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating round score rows: %w", err)
	}
	return players, nil
}

func (r *postgresMatchPlayerRepository) UpsertRoundScore(ctx context.Context, exec SQLExecutor, matchPlayerIDs []int, roundID int, score *float64) error {
	query := `
		INSERT INTO round_scores (match_player_id, round_id, score)
		SELECT unnest($1::int[]), $2, $3
		ON CONFLICT (match_player_id, round_id) DO UPDATE SET score = EXCLUDED.score`

	_, err := executorOr(exec, r.db).ExecContext(ctx, query, pq.Array(matchPlayerIDs), roundID, score)
	if err != nil {
		if code, _, ok := pqConstraint(err); ok && code == pqForeignKeyViolation {
			return ErrMatchPlayerInvalid
		}
		return fmt.Errorf("failed to upsert round %d score: %w", roundID, err)
	}
	return nil
}

func (r *postgresMatchPlayerRepository) SetManualScore(ctx context.Context, exec SQLExecutor, matchPlayerIDs []int, score *float64) error {
	result, err := executorOr(exec, r.db).ExecContext(ctx,
		`UPDATE match_players SET manual_score = $1 WHERE id = ANY($2)`, score, pq.Array(matchPlayerIDs))
	if err != nil {
		return fmt.Errorf("failed to set manual score: %w", err)
	}
	return checkAffectedRows(result, ErrMatchPlayerNotFound)
}

func (r *postgresMatchPlayerRepository) SaveResult(ctx context.Context, exec SQLExecutor, id int, score *float64, placement *int, winner bool) error {
	result, err := executorOr(exec, r.db).ExecContext(ctx,
		`UPDATE match_players SET score = $1, placement = $2, winner = $3 WHERE id = $4`,
		score, placement, winner, id)
	if err != nil {
		return fmt.Errorf("failed to save result of match player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchPlayerNotFound)
}
