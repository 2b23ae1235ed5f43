package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/puzzlerace/api/internal/game"
)

type SubmitScoreRequest struct {
	PlayerID string `json:"playerId"`
	Score    *int   `json:"score"`
}

func handleSubmitScore(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitScoreRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.PlayerID == "" || req.Score == nil {
			writeError(w, http.StatusBadRequest, "playerId and score are required")
			return
		}
		if *req.Score < 0 {
			writeError(w, http.StatusBadRequest, "score must be a non-negative number")
			return
		}

		g, err := svc.SubmitScore(r.Context(), chi.URLParam(r, "gameID"), req.PlayerID, *req.Score)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeData(w, http.StatusOK, g)
	}
}
