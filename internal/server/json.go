package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/puzzlerace/api/internal/game"
	"github.com/puzzlerace/api/internal/store"
)

// Response is the envelope wrapping every API payload.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Success: false, Error: msg})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeDomainError maps the domain and storage error taxonomy onto HTTP
// statuses: unknown session → 404, business-rule rejections → 400 with the
// transition's message verbatim, an exhausted optimistic-retry budget → 409
// so the client knows the request is safe to retry.
func writeDomainError(w http.ResponseWriter, err error) {
	var conflict game.ConflictError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "game not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "too many concurrent updates, please retry")
	case errors.As(err, &conflict):
		writeError(w, http.StatusBadRequest, conflict.Error())
	case errors.Is(err, game.ErrPlayerNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
