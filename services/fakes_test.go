package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/boardgame-tracker/live"
	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/repositories"
	"github.com/Dosada05/boardgame-tracker/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T {
	return &v
}

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	return fn(nil)
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []live.Message
	rooms    []string
}

func (f *fakeBroadcaster) BroadcastToRoom(roomID string, message live.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms = append(f.rooms, roomID)
	f.messages = append(f.messages, message)
}

type fakeUploader struct {
	uploaded []string
	deleted  []string
	err      error
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ string, _ io.Reader) (*storage.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploaded = append(f.uploaded, key)
	return &storage.UploadResult{Key: key}, nil
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int]*models.User
	next  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]*models.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if u.Username == user.Username {
			return repositories.ErrUserUsernameConflict
		}
	}
	f.next++
	user.ID = f.next
	user.CreatedAt = time.Now()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeGameRepo struct {
	mu    sync.Mutex
	games map[int]*models.Game
	next  int
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: map[int]*models.Game{}}
}

func (f *fakeGameRepo) Create(_ context.Context, _ repositories.SQLExecutor, game *models.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.games {
		if g.OwnerID == game.OwnerID && g.Name == game.Name {
			return repositories.ErrGameNameConflict
		}
	}
	f.next++
	game.ID = f.next
	stored := *game
	f.games[game.ID] = &stored
	return nil
}

func (f *fakeGameRepo) GetByID(_ context.Context, id int) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	out := *g
	return &out, nil
}

func (f *fakeGameRepo) ListByOwner(_ context.Context, ownerID int) ([]models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Game{}
	for _, g := range f.games {
		if g.OwnerID == ownerID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeGameRepo) Update(_ context.Context, game *models.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.games[game.ID]; !ok {
		return repositories.ErrGameNotFound
	}
	stored := *game
	f.games[game.ID] = &stored
	return nil
}

func (f *fakeGameRepo) UpdateImageKey(_ context.Context, id int, key *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.ImageKey = key
	return nil
}

func (f *fakeGameRepo) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.games[id]; !ok {
		return repositories.ErrGameNotFound
	}
	delete(f.games, id)
	return nil
}

type fakeScoresheetRepo struct {
	mu        sync.Mutex
	sheets    map[int]*models.Scoresheet
	inUse     map[int]bool
	next      int
	nextRound int
}

func newFakeScoresheetRepo() *fakeScoresheetRepo {
	return &fakeScoresheetRepo{sheets: map[int]*models.Scoresheet{}, inUse: map[int]bool{}}
}

func (f *fakeScoresheetRepo) Create(_ context.Context, _ repositories.SQLExecutor, sheet *models.Scoresheet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sheets {
		if s.GameID == sheet.GameID && s.Name == sheet.Name {
			return repositories.ErrScoresheetNameConflict
		}
	}
	f.next++
	sheet.ID = f.next
	for i := range sheet.Rounds {
		f.nextRound++
		sheet.Rounds[i].ID = f.nextRound
		sheet.Rounds[i].ScoresheetID = sheet.ID
	}
	stored := *sheet
	stored.Rounds = append([]models.ScoresheetRound(nil), sheet.Rounds...)
	f.sheets[sheet.ID] = &stored
	return nil
}

func (f *fakeScoresheetRepo) GetByID(_ context.Context, id int) (*models.Scoresheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sheets[id]
	if !ok {
		return nil, repositories.ErrScoresheetNotFound
	}
	out := *s
	return &out, nil
}

func (f *fakeScoresheetRepo) ListByGame(_ context.Context, gameID int) ([]models.Scoresheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Scoresheet{}
	for _, s := range f.sheets {
		if s.GameID == gameID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeScoresheetRepo) ClearDefault(_ context.Context, _ repositories.SQLExecutor, gameID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sheets {
		if s.GameID == gameID {
			s.IsDefault = false
		}
	}
	return nil
}

func (f *fakeScoresheetRepo) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sheets[id]; !ok {
		return repositories.ErrScoresheetNotFound
	}
	if f.inUse[id] {
		return repositories.ErrScoresheetInUse
	}
	delete(f.sheets, id)
	return nil
}

type fakePlayerRepo struct {
	mu      sync.Mutex
	players map[int]*models.Player
	inUse   map[int]bool
	next    int
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: map[int]*models.Player{}, inUse: map[int]bool{}}
}

func (f *fakePlayerRepo) Create(_ context.Context, player *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.OwnerID == player.OwnerID && p.Name == player.Name {
			return repositories.ErrPlayerNameConflict
		}
	}
	f.next++
	player.ID = f.next
	stored := *player
	f.players[player.ID] = &stored
	return nil
}

func (f *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakePlayerRepo) ListByIDs(_ context.Context, ids []int) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Player{}
	for _, id := range ids {
		if p, ok := f.players[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePlayerRepo) ListByOwner(_ context.Context, ownerID int) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Player{}
	for _, p := range f.players {
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakePlayerRepo) Update(_ context.Context, player *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[player.ID]; !ok {
		return repositories.ErrPlayerNotFound
	}
	stored := *player
	f.players[player.ID] = &stored
	return nil
}

func (f *fakePlayerRepo) UpdateImageKey(_ context.Context, id int, key *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.ImageKey = key
	return nil
}

func (f *fakePlayerRepo) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	if f.inUse[id] {
		return repositories.ErrPlayerInUse
	}
	delete(f.players, id)
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[int]*models.Match
	next    int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: map[int]*models.Match{}}
}

func (f *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	match.ID = f.next
	stored := *match
	stored.Teams, stored.Players = nil, nil
	f.matches[match.ID] = &stored
	return nil
}

func (f *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	out := *m
	return &out, nil
}

func (f *fakeMatchRepo) ListByOwner(_ context.Context, ownerID int, gameID *int, status *models.MatchStatus) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Match{}
	for _, m := range f.matches {
		if m.OwnerID != ownerID {
			continue
		}
		if gameID != nil && m.GameID != *gameID {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMatchRepo) ListFinishedByGame(_ context.Context, gameID int) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Match{}
	for _, m := range f.matches {
		if m.GameID == gameID && m.Status == models.MatchStatusFinished {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMatchRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.MatchStatus, durationSec int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	m.DurationSec = durationSec
	return nil
}

func (f *fakeMatchRepo) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(f.matches, id)
	return nil
}

type fakeMatchPlayerRepo struct {
	mu       sync.Mutex
	teams    []models.MatchTeam
	seats    map[int]*models.MatchPlayer
	scores   map[int]map[int]*float64
	next     int
	nextTeam int
}

func newFakeMatchPlayerRepo() *fakeMatchPlayerRepo {
	return &fakeMatchPlayerRepo{seats: map[int]*models.MatchPlayer{}, scores: map[int]map[int]*float64{}}
}

func (f *fakeMatchPlayerRepo) CreateTeam(_ context.Context, _ repositories.SQLExecutor, team *models.MatchTeam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTeam++
	team.ID = f.nextTeam
	f.teams = append(f.teams, *team)
	return nil
}

func (f *fakeMatchPlayerRepo) ListTeams(_ context.Context, matchID int) ([]models.MatchTeam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.MatchTeam{}
	for _, t := range f.teams {
		if t.MatchID == matchID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeMatchPlayerRepo) Create(_ context.Context, _ repositories.SQLExecutor, mp *models.MatchPlayer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.seats {
		if s.MatchID == mp.MatchID && s.PlayerID == mp.PlayerID {
			return repositories.ErrMatchPlayerDuplicate
		}
	}
	f.next++
	mp.ID = f.next
	stored := *mp
	stored.Rounds, stored.Player = nil, nil
	f.seats[mp.ID] = &stored
	return nil
}

func (f *fakeMatchPlayerRepo) GetByID(_ context.Context, id int) (*models.MatchPlayer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seats[id]
	if !ok {
		return nil, repositories.ErrMatchPlayerNotFound
	}
	out := *s
	return &out, nil
}

// ListByMatches orders round scores by round id, which follows round order in
// these tests.
func (f *fakeMatchPlayerRepo) ListByMatches(_ context.Context, matchIDs []int) ([]models.MatchPlayer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := map[int]bool{}
	for _, id := range matchIDs {
		wanted[id] = true
	}

	out := []models.MatchPlayer{}
	for _, s := range f.seats {
		if !wanted[s.MatchID] {
			continue
		}
		seat := *s
		seat.Rounds = []models.RoundScore{}
		for roundID, score := range f.scores[s.ID] {
			seat.Rounds = append(seat.Rounds, models.RoundScore{MatchPlayerID: s.ID, RoundID: roundID, Score: score})
		}
		sort.Slice(seat.Rounds, func(i, j int) bool { return seat.Rounds[i].RoundID < seat.Rounds[j].RoundID })
		out = append(out, seat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchID != out[j].MatchID {
			return out[i].MatchID < out[j].MatchID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeMatchPlayerRepo) UpsertRoundScore(_ context.Context, _ repositories.SQLExecutor, ids []int, roundID int, score *float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if f.scores[id] == nil {
			f.scores[id] = map[int]*float64{}
		}
		f.scores[id][roundID] = score
	}
	return nil
}

func (f *fakeMatchPlayerRepo) SetManualScore(_ context.Context, _ repositories.SQLExecutor, ids []int, score *float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if s, ok := f.seats[id]; ok {
			s.ManualScore = score
		}
	}
	return nil
}

func (f *fakeMatchPlayerRepo) SaveResult(_ context.Context, _ repositories.SQLExecutor, id int, score *float64, placement *int, winner bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seats[id]
	if !ok {
		return repositories.ErrMatchPlayerNotFound
	}
	s.Score, s.Placement, s.Winner = score, placement, winner
	return nil
}
