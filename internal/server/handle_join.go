package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/puzzlerace/api/internal/game"
)

type JoinRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// JoinResult pairs the updated session with the player the join created.
type JoinResult struct {
	Game   game.Game   `json:"game"`
	Player game.Player `json:"player"`
}

func handleJoinGame(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "player name is required")
			return
		}

		g, p, err := svc.Join(r.Context(), chi.URLParam(r, "gameID"), req.Name, req.Avatar)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeData(w, http.StatusOK, JoinResult{Game: g, Player: p})
	}
}
