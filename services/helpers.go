package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/repositories"
	"github.com/Dosada05/boardgame-tracker/storage"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Transactor runs fn inside a database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

func NewSQLTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func populateGameImageURL(game *models.Game, uploader storage.FileUploader) {
	if game != nil && game.ImageKey != nil && *game.ImageKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*game.ImageKey); url != "" {
			game.ImageURL = &url
		}
	}
}

func populatePlayerImageURL(player *models.Player, uploader storage.FileUploader) {
	if player != nil && player.ImageKey != nil && *player.ImageKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*player.ImageKey); url != "" {
			player.ImageURL = &url
		}
	}
}

// fuzzyRank orders names by fuzzy match distance to query, case-insensitively.
// It returns indexes into names; names that do not match are dropped.
func fuzzyRank(query string, names []string) []int {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]int, len(names))
		for i := range names {
			out[i] = i
		}
		return out
	}

	ranks := fuzzy.RankFindFold(query, names)
	sort.Stable(ranks)

	out := make([]int, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, r.OriginalIndex)
	}
	return out
}

// uploadImage stores an image under a fresh key and returns that key.
func uploadImage(ctx context.Context, uploader storage.FileUploader, kind string, id int, file io.Reader, contentType string, now time.Time) (string, error) {
	ext, err := storage.ExtensionFromContentType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrImageTypeUnsupported, contentType)
	}

	key := storage.ImageKey(kind, id, ext, now)
	if _, err := uploader.Upload(ctx, key, contentType, file); err != nil {
		if errors.Is(err, storage.ErrUploaderDisabled) {
			return "", ErrUploadsDisabled
		}
		return "", fmt.Errorf("failed to upload image %s: %w", key, err)
	}
	return key, nil
}
