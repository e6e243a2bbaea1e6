package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/boardgame-tracker/middleware"
	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/scoring"
	"github.com/Dosada05/boardgame-tracker/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

func bearer(t *testing.T, userID int) string {
	t.Helper()
	token, err := middleware.NewToken([]byte(testSecret), userID, models.RolePlayer, time.Hour)
	require.NoError(t, err)
	return token
}

func authed(t *testing.T, req *http.Request, userID int) *http.Request {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+bearer(t, userID))
	return req
}

// serve прогоняет запрос через chi с аутентификацией, как в боевом роутере.
func serve(method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.With(middleware.Authenticate(testSecret)).Method(method, pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// Заглушки встраивают интерфейс: невызываемые методы паникуют.

type stubAuthService struct {
	services.AuthService
	register func(services.RegisterInput) (*models.User, error)
	login    func(services.LoginInput) (*models.User, error)
	getUser  func(id int) (*models.User, error)
}

func (s *stubAuthService) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	return s.register(in)
}

func (s *stubAuthService) Login(_ context.Context, in services.LoginInput) (*models.User, error) {
	return s.login(in)
}

func (s *stubAuthService) GetUser(_ context.Context, id int) (*models.User, error) {
	return s.getUser(id)
}

type stubGameService struct {
	services.GameService
	list   func(ownerID int) ([]models.Game, error)
	search func(ownerID int, q string) ([]models.Game, error)
	create func(ownerID int, in services.CreateGameInput) (*models.Game, error)
}

func (s *stubGameService) ListGames(_ context.Context, ownerID int) ([]models.Game, error) {
	return s.list(ownerID)
}

func (s *stubGameService) SearchGames(_ context.Context, ownerID int, q string) ([]models.Game, error) {
	return s.search(ownerID, q)
}

func (s *stubGameService) CreateGame(_ context.Context, ownerID int, in services.CreateGameInput) (*models.Game, error) {
	return s.create(ownerID, in)
}

type stubScoresheetService struct {
	services.ScoresheetService
	importTemplate func(ownerID, gameID int, document []byte) ([]models.Scoresheet, error)
}

func (s *stubScoresheetService) ImportTemplate(_ context.Context, ownerID, gameID int, document []byte) ([]models.Scoresheet, error) {
	return s.importTemplate(ownerID, gameID, document)
}

type stubPlayerService struct {
	services.PlayerService
	upload func(ownerID, playerID int, body []byte, contentType string) (*models.Player, error)
}

func (s *stubPlayerService) UploadPlayerImage(_ context.Context, ownerID, playerID int, file io.Reader, contentType string) (*models.Player, error) {
	body, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return s.upload(ownerID, playerID, body, contentType)
}

type stubMatchService struct {
	services.MatchService
	get         func(ownerID, matchID int) (*models.Match, error)
	list        func(ownerID int, filter services.ListMatchesFilter) ([]models.Match, error)
	updateRound func(ownerID, matchID int, in services.UpdateRoundScoreInput) ([]scoring.FinalScoreResult, error)
	finish      func(ownerID, matchID int, in services.FinishMatchInput) (*models.MatchSummary, error)
}

func (s *stubMatchService) GetMatch(_ context.Context, ownerID, matchID int) (*models.Match, error) {
	return s.get(ownerID, matchID)
}

func (s *stubMatchService) ListMatches(_ context.Context, ownerID int, filter services.ListMatchesFilter) ([]models.Match, error) {
	return s.list(ownerID, filter)
}

func (s *stubMatchService) UpdateRoundScore(_ context.Context, ownerID, matchID int, in services.UpdateRoundScoreInput) ([]scoring.FinalScoreResult, error) {
	return s.updateRound(ownerID, matchID, in)
}

func (s *stubMatchService) FinishMatch(_ context.Context, ownerID, matchID int, in services.FinishMatchInput) (*models.MatchSummary, error) {
	return s.finish(ownerID, matchID, in)
}

type stubStatsService struct {
	stats func(ownerID, gameID int) ([]models.PlayerGameStats, error)
}

func (s *stubStatsService) PlayerGameStats(_ context.Context, ownerID, gameID int) ([]models.PlayerGameStats, error) {
	return s.stats(ownerID, gameID)
}
