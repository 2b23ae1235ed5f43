// Package game holds the puzzle-race session domain: the session model, the
// pure state transitions run through the entity store, and the derived
// leaderboard.
package game

import "sort"

// Status is the lifecycle phase of a session. It only ever advances
// lobby → playing → finished.
type Status string

const (
	StatusLobby    Status = "lobby"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// DefaultAvatar is assigned to players that join without picking one.
const DefaultAvatar = "🚀"

// DefaultInterPuzzleDelay (seconds) applies when the creator passes no delay
// or one outside [MinInterPuzzleDelay, MaxInterPuzzleDelay].
const (
	DefaultInterPuzzleDelay = 1
	MinInterPuzzleDelay     = 0
	MaxInterPuzzleDelay     = 5
)

// Player is one participant of a session. Scores holds the elapsed time in
// milliseconds per completed puzzle, in puzzle order; its length never
// exceeds the session's puzzle count.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Scores []int  `json:"scores"`
}

// Game is one race session. PuzzleKeys is fixed at creation and opaque to the
// server; ShufflePuzzles and InterPuzzleDelaySeconds are presentation hints
// for the client and carry no server-side meaning.
type Game struct {
	ID                      string   `json:"id"`
	Status                  Status   `json:"status"`
	Players                 []Player `json:"players"`
	PuzzleKeys              []string `json:"puzzleKeys"`
	ShufflePuzzles          bool     `json:"shufflePuzzles"`
	InterPuzzleDelaySeconds int      `json:"interPuzzleDelaySeconds"`
}

// finished reports whether every player has a score for every puzzle.
func (g Game) finished() bool {
	for _, p := range g.Players {
		if len(p.Scores) != len(g.PuzzleKeys) {
			return false
		}
	}
	return true
}

// Standing is one leaderboard row.
type Standing struct {
	Player Player `json:"player"`
	Total  int    `json:"total"`
	Rank   int    `json:"rank"`
}

// Leaderboard ranks players by ascending score total. Ties keep join order,
// so the earlier joiner wins. The ranking is derived on demand and never
// stored on the session.
func Leaderboard(g Game) []Standing {
	standings := make([]Standing, len(g.Players))
	for i, p := range g.Players {
		total := 0
		for _, s := range p.Scores {
			total += s
		}
		standings[i] = Standing{Player: p, Total: total}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Total < standings[j].Total
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
