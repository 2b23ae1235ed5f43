package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/puzzlerace/api/internal/game"
)

func handleStartGame(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := svc.Start(r.Context(), chi.URLParam(r, "gameID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeData(w, http.StatusOK, g)
	}
}
