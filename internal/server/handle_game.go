package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/puzzlerace/api/internal/game"
)

type CreateGameRequest struct {
	PuzzleKeys              []string `json:"puzzleKeys"`
	ShufflePuzzles          *bool    `json:"shufflePuzzles"`
	InterPuzzleDelaySeconds *int     `json:"interPuzzleDelaySeconds"`
}

func handleCreateGame(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		g, err := svc.Create(r.Context(), req.PuzzleKeys, req.ShufflePuzzles, req.InterPuzzleDelaySeconds)
		if errors.Is(err, game.ErrNoPuzzles) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeData(w, http.StatusOK, g)
	}
}

func handleGetGame(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := svc.Get(r.Context(), chi.URLParam(r, "gameID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeData(w, http.StatusOK, g)
	}
}

func handleListGames(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := svc.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		writeData(w, http.StatusOK, ids)
	}
}

func handleLeaderboard(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := svc.Get(r.Context(), chi.URLParam(r, "gameID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeData(w, http.StatusOK, game.Leaderboard(g))
	}
}
