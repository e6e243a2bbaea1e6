package routes

import (
	"net/http"

	"github.com/Dosada05/boardgame-tracker/config"
	_ "github.com/Dosada05/boardgame-tracker/docs"
	"github.com/Dosada05/boardgame-tracker/handlers"
	"github.com/Dosada05/boardgame-tracker/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Запас запросов сверх AUTH_RATE_LIMIT для коротких всплесков.
const authRateBurst = 10

func SetupRoutes(
	router chi.Router,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	gameHandler *handlers.GameHandler,
	scoresheetHandler *handlers.ScoresheetHandler,
	playerHandler *handlers.PlayerHandler,
	matchHandler *handlers.MatchHandler,
	statsHandler *handlers.StatsHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	authenticate := middleware.Authenticate(cfg.JWTSecretKey)

	router.Route("/api/v1", func(r chi.Router) {
		// Публичные маршруты аутентификации, ограничены по частоте запросов
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthRateLimit, authRateBurst))
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		// Все остальное только для аутентифицированных пользователей
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/auth/me", authHandler.Me)

			r.Route("/games", func(r chi.Router) {
				r.Get("/", gameHandler.ListGames)
				r.Post("/", gameHandler.CreateGame)

				r.Route("/{gameID}", func(r chi.Router) {
					r.Get("/", gameHandler.GetGame)
					r.Put("/", gameHandler.UpdateGame)
					r.Delete("/", gameHandler.DeleteGame)
					r.Post("/image", gameHandler.UploadGameImage)

					r.Get("/scoresheets", scoresheetHandler.ListScoresheets)
					r.Post("/scoresheets", scoresheetHandler.CreateScoresheet)
					r.Post("/scoresheets/import", scoresheetHandler.ImportScoresheets)

					r.Get("/stats", statsHandler.GetGameStats)
				})
			})

			r.Route("/scoresheets/{scoresheetID}", func(r chi.Router) {
				r.Get("/", scoresheetHandler.GetScoresheet)
				r.Delete("/", scoresheetHandler.DeleteScoresheet)
			})

			r.Route("/players", func(r chi.Router) {
				r.Get("/", playerHandler.ListPlayers)
				r.Post("/", playerHandler.CreatePlayer)

				r.Route("/{playerID}", func(r chi.Router) {
					r.Get("/", playerHandler.GetPlayer)
					r.Put("/", playerHandler.UpdatePlayer)
					r.Delete("/", playerHandler.DeletePlayer)
					r.Post("/image", playerHandler.UploadPlayerImage)
				})
			})

			r.Route("/matches", func(r chi.Router) {
				r.Get("/", matchHandler.ListMatches)
				r.Post("/", matchHandler.CreateMatch)

				r.Route("/{matchID}", func(r chi.Router) {
					r.Get("/", matchHandler.GetMatch)
					r.Delete("/", matchHandler.DeleteMatch)
					r.Put("/scores", matchHandler.UpdateRoundScore)
					r.Put("/manual-scores", matchHandler.SetManualScore)
					r.Post("/finish", matchHandler.FinishMatch)
					r.Get("/summary", matchHandler.GetMatchSummary)
				})
			})
		})
	})

	// Браузерный WebSocket не умеет заголовки, токен приходит в ?token=
	router.With(authenticate).Get("/ws/matches/{matchID}", webSocketHandler.ServeWs)
}
