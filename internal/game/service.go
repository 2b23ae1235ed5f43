package game

import (
	"context"
	"errors"
	"strings"

	"github.com/puzzlerace/api/internal/store"
)

// ConflictError rejects an operation that is illegal for the session's
// current status or roster. Its message is surfaced to clients verbatim.
type ConflictError string

func (e ConflictError) Error() string { return string(e) }

const (
	ErrAlreadyStarted = ConflictError("game has already started")
	ErrNameTaken      = ConflictError("player name already taken")
	ErrNotInLobby     = ConflictError("game is not in lobby state")
	ErrNotInProgress  = ConflictError("game is not currently in progress")
)

var (
	// ErrNoPuzzles rejects session creation without any puzzle keys.
	ErrNoPuzzles = errors.New("at least one puzzle must be selected")

	// ErrPlayerNotFound rejects a score for a player id the session does
	// not know.
	ErrPlayerNotFound = errors.New("player not found in this game")
)

// Service implements the session operations as transitions against the
// entity store. It holds no state of its own; one instance is constructed at
// process start and shared by all requests.
type Service struct {
	games store.Store[Game]
}

func NewService(games store.Store[Game]) *Service {
	return &Service{games: games}
}

// Create starts a new session in the lobby with an empty roster. shuffle
// defaults to true; delaySeconds defaults to DefaultInterPuzzleDelay when nil
// or outside the allowed range.
func (s *Service) Create(ctx context.Context, puzzleKeys []string, shuffle *bool, delaySeconds *int) (Game, error) {
	if len(puzzleKeys) == 0 {
		return Game{}, ErrNoPuzzles
	}

	g := Game{
		ID:                      store.NewID(),
		Status:                  StatusLobby,
		Players:                 []Player{},
		PuzzleKeys:              puzzleKeys,
		ShufflePuzzles:          true,
		InterPuzzleDelaySeconds: DefaultInterPuzzleDelay,
	}
	if shuffle != nil {
		g.ShufflePuzzles = *shuffle
	}
	if delaySeconds != nil && *delaySeconds >= MinInterPuzzleDelay && *delaySeconds <= MaxInterPuzzleDelay {
		g.InterPuzzleDelaySeconds = *delaySeconds
	}

	if err := s.games.Create(ctx, g.ID, g); err != nil {
		return Game{}, err
	}
	return g, nil
}

// Get returns the current session state. Reads may trail a commit in flight;
// polling clients pick up the change on the next fetch.
func (s *Service) Get(ctx context.Context, id string) (Game, error) {
	return s.games.Get(ctx, id)
}

// List returns all session ids in creation order.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.games.List(ctx)
}

// Join adds a player to a lobby session and returns the updated session
// together with the new player. Names are trimmed and must be unique within
// the session ignoring case. The player id is minted up front so the
// transition stays pure under optimistic retries.
func (s *Service) Join(ctx context.Context, id, name, avatar string) (Game, Player, error) {
	name = strings.TrimSpace(name)
	if avatar == "" {
		avatar = DefaultAvatar
	}
	playerID := store.NewID()

	return store.MutateAux(ctx, s.games, id, func(g Game) (Game, Player, error) {
		if g.Status != StatusLobby {
			return Game{}, Player{}, ErrAlreadyStarted
		}
		for _, p := range g.Players {
			if strings.EqualFold(strings.TrimSpace(p.Name), name) {
				return Game{}, Player{}, ErrNameTaken
			}
		}

		p := Player{ID: playerID, Name: name, Avatar: avatar, Scores: []int{}}
		g.Players = append(g.Players, p)
		return g, p, nil
	})
}

// Start moves a lobby session to playing. An empty roster is allowed to
// start; such a session can never reach finished.
func (s *Service) Start(ctx context.Context, id string) (Game, error) {
	return s.games.Mutate(ctx, id, func(g Game) (Game, error) {
		if g.Status != StatusLobby {
			return Game{}, ErrNotInLobby
		}
		g.Status = StatusPlaying
		return g, nil
	})
}

// SubmitScore appends a score to the player's list. Submissions from a player
// who already has a score per puzzle are accepted as no-ops. The submission
// that completes the last open score list flips the session to finished in
// the same transition, so "all players done" and "status playing" are never
// observable together.
func (s *Service) SubmitScore(ctx context.Context, id, playerID string, score int) (Game, error) {
	return s.games.Mutate(ctx, id, func(g Game) (Game, error) {
		if g.Status != StatusPlaying {
			return Game{}, ErrNotInProgress
		}

		idx := -1
		for i, p := range g.Players {
			if p.ID == playerID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Game{}, ErrPlayerNotFound
		}

		if len(g.Players[idx].Scores) >= len(g.PuzzleKeys) {
			// Already finished; ignore extra submissions.
			return g, nil
		}

		g.Players[idx].Scores = append(g.Players[idx].Scores, score)
		if g.finished() {
			g.Status = StatusFinished
		}
		return g, nil
	})
}
