package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/puzzlerace/api/internal/game"
)

func addRoutes(r chi.Router, logger *slog.Logger, svc *game.Service, db *sql.DB, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Puzzle Race API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	r.Route("/games", func(r chi.Router) {
		r.Post("/", handleCreateGame(svc))
		r.Get("/", handleListGames(svc))

		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", handleGetGame(svc))
			r.Get("/leaderboard", handleLeaderboard(svc))
			r.Post("/players", handleJoinGame(svc))
			r.Post("/start", handleStartGame(svc))
			r.Post("/score", handleSubmitScore(svc))
		})
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
