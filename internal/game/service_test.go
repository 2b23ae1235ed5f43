package game_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/puzzlerace/api/internal/game"
	"github.com/puzzlerace/api/internal/store"
)

func newService(t *testing.T) *game.Service {
	t.Helper()
	return game.NewService(store.NewMemory[game.Game]())
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func TestCreateDefaults(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, []string{"p1", "p2"}, nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if g.ID == "" {
		t.Error("id must be assigned")
	}
	if g.Status != game.StatusLobby {
		t.Errorf("status = %q, want lobby", g.Status)
	}
	if len(g.Players) != 0 {
		t.Errorf("players = %v, want empty", g.Players)
	}
	if !g.ShufflePuzzles {
		t.Error("shuffle must default to true")
	}
	if g.InterPuzzleDelaySeconds != 1 {
		t.Errorf("delay = %d, want default 1", g.InterPuzzleDelaySeconds)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, nil, nil, nil); !errors.Is(err, game.ErrNoPuzzles) {
		t.Errorf("empty keys: err = %v, want ErrNoPuzzles", err)
	}

	g, err := svc.Create(ctx, []string{"p1"}, boolPtr(false), intPtr(3))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.ShufflePuzzles {
		t.Error("shuffle = true, want explicit false kept")
	}
	if g.InterPuzzleDelaySeconds != 3 {
		t.Errorf("delay = %d, want 3", g.InterPuzzleDelaySeconds)
	}

	// Out-of-range delays fall back to the default rather than clamping.
	g, err = svc.Create(ctx, []string{"p1"}, nil, intPtr(9))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.InterPuzzleDelaySeconds != 1 {
		t.Errorf("delay = %d, want default 1 for out-of-range input", g.InterPuzzleDelaySeconds)
	}
}

func TestJoin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, []string{"p1"}, nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, p, err := svc.Join(ctx, g.ID, "  Alice  ", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if p.ID == "" {
		t.Error("player id must be assigned")
	}
	if p.Name != "Alice" {
		t.Errorf("name = %q, want trimmed %q", p.Name, "Alice")
	}
	if p.Avatar != game.DefaultAvatar {
		t.Errorf("avatar = %q, want default %q", p.Avatar, game.DefaultAvatar)
	}
	if len(p.Scores) != 0 {
		t.Errorf("scores = %v, want empty", p.Scores)
	}
	if len(updated.Players) != 1 || updated.Players[0].ID != p.ID {
		t.Errorf("players = %v, want the joined player", updated.Players)
	}

	_, p2, err := svc.Join(ctx, g.ID, "Bob", "🐱")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if p2.Avatar != "🐱" {
		t.Errorf("avatar = %q, want the chosen one", p2.Avatar)
	}
}

func TestJoinNameTaken(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	g, _ := svc.Create(ctx, []string{"p1"}, nil, nil)
	if _, _, err := svc.Join(ctx, g.ID, "ALICE", ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	// Collides after trimming and ignoring case.
	_, _, err := svc.Join(ctx, g.ID, "Alice ", "")
	if !errors.Is(err, game.ErrNameTaken) {
		t.Fatalf("err = %v, want ErrNameTaken", err)
	}
}

func TestJoinAfterStart(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	g, _ := svc.Create(ctx, []string{"p1"}, nil, nil)
	if _, err := svc.Start(ctx, g.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, _, err := svc.Join(ctx, g.ID, "Late", "")
	if !errors.Is(err, game.ErrAlreadyStarted) {
		t.Fatalf("err = %v, want ErrAlreadyStarted", err)
	}
}

func TestStartTransitions(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	// Starting with zero players is allowed.
	g, _ := svc.Create(ctx, []string{"p1"}, nil, nil)
	started, err := svc.Start(ctx, g.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != game.StatusPlaying {
		t.Errorf("status = %q, want playing", started.Status)
	}

	// Starting twice is a conflict.
	if _, err := svc.Start(ctx, g.ID); !errors.Is(err, game.ErrNotInLobby) {
		t.Errorf("second start: err = %v, want ErrNotInLobby", err)
	}

	// Unknown session.
	if _, err := svc.Start(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestSubmitScoreStatusGuards(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	g, _ := svc.Create(ctx, []string{"p1"}, nil, nil)
	_, p, _ := svc.Join(ctx, g.ID, "Alice", "")

	// Still in lobby.
	if _, err := svc.SubmitScore(ctx, g.ID, p.ID, 100); !errors.Is(err, game.ErrNotInProgress) {
		t.Errorf("lobby submit: err = %v, want ErrNotInProgress", err)
	}

	svc.Start(ctx, g.ID)
	if _, err := svc.SubmitScore(ctx, g.ID, p.ID, 100); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Session is finished now (single player, single puzzle).
	if _, err := svc.Start(ctx, g.ID); !errors.Is(err, game.ErrNotInLobby) {
		t.Errorf("start finished: err = %v, want ErrNotInLobby", err)
	}

	got, _ := svc.Get(ctx, g.ID)
	if got.Status != game.StatusFinished {
		t.Fatalf("status = %q, want finished", got.Status)
	}
}

func TestSubmitScoreUnknownPlayer(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	g, _ := svc.Create(ctx, []string{"p1"}, nil, nil)
	svc.Start(ctx, g.ID)

	_, err := svc.SubmitScore(ctx, g.ID, "ghost", 100)
	if !errors.Is(err, game.ErrPlayerNotFound) {
		t.Fatalf("err = %v, want ErrPlayerNotFound", err)
	}
}

func TestSubmitScorePastCompletionIsNoOp(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	g, _ := svc.Create(ctx, []string{"p1"}, nil, nil)
	_, alice, _ := svc.Join(ctx, g.ID, "Alice", "")
	_, bob, _ := svc.Join(ctx, g.ID, "Bob", "")
	svc.Start(ctx, g.ID)

	if _, err := svc.SubmitScore(ctx, g.ID, alice.ID, 100); err != nil {
		t.Fatalf("submit: %v", err)
	}
	before, _ := svc.Get(ctx, g.ID)

	// Alice already has a score per puzzle; the duplicate changes nothing.
	after, err := svc.SubmitScore(ctx, g.ID, alice.ID, 999)
	if err != nil {
		t.Fatalf("duplicate submit: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("duplicate submission changed state:\nbefore %+v\nafter  %+v", before, after)
	}

	// Bob can still finish the race.
	final, err := svc.SubmitScore(ctx, g.ID, bob.ID, 200)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if final.Status != game.StatusFinished {
		t.Errorf("status = %q, want finished", final.Status)
	}
}

func TestFullRace(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, []string{"p1", "p2"}, boolPtr(false), intPtr(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.Status != game.StatusLobby || len(g.PuzzleKeys) != 2 {
		t.Fatalf("created game = %+v", g)
	}

	_, alice, err := svc.Join(ctx, g.ID, "Alice", "🚀")
	if err != nil {
		t.Fatalf("join alice: %v", err)
	}
	_, bob, err := svc.Join(ctx, g.ID, "Bob", "🐱")
	if err != nil {
		t.Fatalf("join bob: %v", err)
	}

	if started, _ := svc.Start(ctx, g.ID); started.Status != game.StatusPlaying {
		t.Fatalf("status after start = %q", started.Status)
	}

	steps := []struct {
		playerID   string
		score      int
		wantStatus game.Status
	}{
		{alice.ID, 100, game.StatusPlaying},
		{bob.ID, 200, game.StatusPlaying},
		{alice.ID, 150, game.StatusPlaying},
		{bob.ID, 250, game.StatusFinished},
	}
	var final game.Game
	for i, step := range steps {
		final, err = svc.SubmitScore(ctx, g.ID, step.playerID, step.score)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if final.Status != step.wantStatus {
			t.Fatalf("submit %d: status = %q, want %q", i, final.Status, step.wantStatus)
		}
	}

	standings := game.Leaderboard(final)
	if standings[0].Player.ID != alice.ID || standings[0].Total != 250 {
		t.Errorf("winner = %+v, want Alice with 250", standings[0])
	}
	if standings[1].Player.ID != bob.ID || standings[1].Total != 450 {
		t.Errorf("runner-up = %+v, want Bob with 450", standings[1])
	}
}

// submitRetrying treats the store's retryable conflict as a signal to try the
// same submission again, the way an HTTP client retries a 409.
func submitRetrying(ctx context.Context, svc *game.Service, gameID, playerID string, score int) error {
	for {
		_, err := svc.SubmitScore(ctx, gameID, playerID, score)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		return err
	}
}

func TestConcurrentSubmitsLoseNothing(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	keys := []string{"p1", "p2", "p3", "p4"}
	g, _ := svc.Create(ctx, keys, nil, nil)

	players := make([]game.Player, 4)
	for i, name := range []string{"Alice", "Bob", "Cleo", "Dan"} {
		_, p, err := svc.Join(ctx, g.ID, name, "")
		if err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		players[i] = p
	}
	svc.Start(ctx, g.ID)

	// Each player submits their full score list concurrently with everyone
	// else's. Per player the submissions are ordered; across players they
	// interleave arbitrarily.
	grp, gctx := errgroup.WithContext(ctx)
	for pi, p := range players {
		grp.Go(func() error {
			for round := range keys {
				if err := submitRetrying(gctx, svc, g.ID, p.ID, (pi+1)*1000+round); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		t.Fatalf("concurrent submits: %v", err)
	}

	final, err := svc.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != game.StatusFinished {
		t.Errorf("status = %q, want finished", final.Status)
	}
	for pi, p := range final.Players {
		if len(p.Scores) != len(keys) {
			t.Fatalf("player %s scores = %v, want %d entries", p.Name, p.Scores, len(keys))
		}
		for round, score := range p.Scores {
			if want := (pi+1)*1000 + round; score != want {
				t.Errorf("player %s scores[%d] = %d, want %d (per-player order)", p.Name, round, score, want)
			}
		}
	}
}

func TestConcurrentJoinSameName(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	g, _ := svc.Create(ctx, []string{"p1"}, nil, nil)

	errs := make(chan error, 2)
	for range 2 {
		go func() {
			_, _, err := svc.Join(ctx, g.ID, "Alice", "")
			errs <- err
		}()
	}

	var ok, taken int
	for range 2 {
		switch err := <-errs; {
		case err == nil:
			ok++
		case errors.Is(err, game.ErrNameTaken):
			taken++
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}
	if ok != 1 || taken != 1 {
		t.Fatalf("joins: %d succeeded, %d rejected; want exactly one of each", ok, taken)
	}

	final, _ := svc.Get(ctx, g.ID)
	if len(final.Players) != 1 {
		t.Errorf("players = %v, want exactly one", final.Players)
	}
}
