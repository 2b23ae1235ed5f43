package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/puzzlerace/api/internal/game"
)

// Doc-only envelope shapes; the handlers build the same structure through
// writeData/writeError.
type gameEnvelope struct {
	Success bool      `json:"success"`
	Data    game.Game `json:"data"`
}

type joinEnvelope struct {
	Success bool       `json:"success"`
	Data    JoinResult `json:"data"`
}

type listEnvelope struct {
	Success bool     `json:"success"`
	Data    []string `json:"data"`
}

type leaderboardEnvelope struct {
	Success bool            `json:"success"`
	Data    []game.Standing `json:"data"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Puzzle Race API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for timed multiplayer puzzle race sessions.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /games
	createGame, _ := r.NewOperationContext(http.MethodPost, "/games")
	createGame.SetSummary("Create game")
	createGame.SetDescription("Creates a new race session in the lobby with the given ordered puzzle keys.")
	createGame.AddReqStructure(CreateGameRequest{})
	createGame.AddRespStructure(gameEnvelope{}, openapi.WithHTTPStatus(http.StatusOK))
	createGame.AddRespStructure(errorEnvelope{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createGame)

	// GET /games
	listGames, _ := r.NewOperationContext(http.MethodGet, "/games")
	listGames.SetSummary("List games")
	listGames.SetDescription("Returns the ids of all sessions in creation order.")
	listGames.AddRespStructure(listEnvelope{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listGames)

	// GET /games/{gameID}
	getGame, _ := r.NewOperationContext(http.MethodGet, "/games/{gameID}")
	getGame.SetSummary("Get game")
	getGame.SetDescription("Returns the current session state. Clients poll this while waiting for status changes.")
	getGame.AddRespStructure(gameEnvelope{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(errorEnvelope{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGame)

	// GET /games/{gameID}/leaderboard
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/games/{gameID}/leaderboard")
	getBoard.SetSummary("Get leaderboard")
	getBoard.SetDescription("Returns players ranked by ascending score total; ties keep join order.")
	getBoard.AddRespStructure(leaderboardEnvelope{}, openapi.WithHTTPStatus(http.StatusOK))
	getBoard.AddRespStructure(errorEnvelope{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getBoard)

	// POST /games/{gameID}/players
	joinGame, _ := r.NewOperationContext(http.MethodPost, "/games/{gameID}/players")
	joinGame.SetSummary("Join game")
	joinGame.SetDescription("Adds a player to a lobby session. Names are unique per session ignoring case.")
	joinGame.AddReqStructure(JoinRequest{})
	joinGame.AddRespStructure(joinEnvelope{}, openapi.WithHTTPStatus(http.StatusOK))
	joinGame.AddRespStructure(errorEnvelope{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	joinGame.AddRespStructure(errorEnvelope{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(joinGame)

	// POST /games/{gameID}/start
	startGame, _ := r.NewOperationContext(http.MethodPost, "/games/{gameID}/start")
	startGame.SetSummary("Start game")
	startGame.SetDescription("Moves a lobby session to playing.")
	startGame.AddRespStructure(gameEnvelope{}, openapi.WithHTTPStatus(http.StatusOK))
	startGame.AddRespStructure(errorEnvelope{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	startGame.AddRespStructure(errorEnvelope{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(startGame)

	// POST /games/{gameID}/score
	submitScore, _ := r.NewOperationContext(http.MethodPost, "/games/{gameID}/score")
	submitScore.SetSummary("Submit score")
	submitScore.SetDescription("Records one puzzle's elapsed-time score for a player. " +
		"A 409 means concurrent updates exhausted the store's retry budget; the request is safe to retry.")
	submitScore.AddReqStructure(SubmitScoreRequest{})
	submitScore.AddRespStructure(gameEnvelope{}, openapi.WithHTTPStatus(http.StatusOK))
	submitScore.AddRespStructure(errorEnvelope{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	submitScore.AddRespStructure(errorEnvelope{}, openapi.WithHTTPStatus(http.StatusNotFound))
	submitScore.AddRespStructure(errorEnvelope{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(submitScore)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.Encode(spec)
	}
}
