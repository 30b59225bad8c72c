package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/pixelwords/internal/config"
	"github.com/robalobadob/pixelwords/internal/content"
	"github.com/robalobadob/pixelwords/internal/game"
	"github.com/robalobadob/pixelwords/internal/progress"
	"github.com/robalobadob/pixelwords/internal/quiz"
	"github.com/robalobadob/pixelwords/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(t *testing.T, tick time.Duration) (*Registry, store.Store, *fakeClock) {
	t.Helper()
	pool, err := content.Default()
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	cfg := config.Default()
	cfg.AudioModeChance = 0
	st := store.NewMemoryStore()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	reg := NewRegistry(Options{Config: cfg, Pool: pool, Store: st, Tick: tick, Seed: 7, Now: clk.Now})
	t.Cleanup(reg.Close)
	return reg, st, clk
}

func findWord(t *testing.T, lvl content.Level, match func(content.Word) bool) content.Word {
	t.Helper()
	for _, w := range lvl.Words {
		if match(w) {
			return w
		}
	}
	t.Fatal("no level word matches the view")
	return content.Word{}
}

// solve plays the attempt to completion using only what the view shows.
func solve(t *testing.T, r *Runner) {
	t.Helper()
	cfg := config.Default()
	lvl := r.Level()
	for step := 0; step < 500; step++ {
		v := r.View()
		switch {
		case v.State.Over():
			return
		case v.Recognition != nil:
			w := findWord(t, lvl, func(w content.Word) bool { return w.English == v.Recognition.English })
			mustDo(t, r, func(a *game.Attempt) error { _, err := a.Select(w.Native); return err })
			r.Advance(cfg.CorrectDelay)
		case v.Consolidation != nil:
			cv := v.Consolidation
			if cv.Mode == game.ModePartOfSpeech {
				w := findWord(t, lvl, func(w content.Word) bool { return w.English == cv.English })
				mustDo(t, r, func(a *game.Attempt) error { _, err := a.ChooseCategory(w.POS); return err })
			} else {
				w := findWord(t, lvl, func(w content.Word) bool { return w.Native == cv.Native })
				letter := []rune(w.English)[cv.Cursor]
				mustDo(t, r, func(a *game.Attempt) error { _, err := a.TypeLetter(letter); return err })
			}
			r.Advance(cfg.CorrectDelay)
		case v.Application != nil:
			av := v.Application
			w := findWord(t, lvl, func(w content.Word) bool { return w.ExampleNative == av.Prompt || w.Native == av.Prompt })
			tokens := quiz.SentenceTokens(w.Example)
			if len(tokens) == 0 {
				tokens = []string{w.English}
			}
			avail := append([]game.Tile(nil), av.Available...)
			for _, tok := range tokens {
				i := 0
				for i < len(avail) && !strings.EqualFold(avail[i].Text, tok) {
					i++
				}
				if i == len(avail) {
					t.Fatalf("no tile for %q in %v", tok, avail)
				}
				id := avail[i].ID
				avail = append(avail[:i], avail[i+1:]...)
				mustDo(t, r, func(a *game.Attempt) error { return a.ToggleTile(id) })
			}
			mustDo(t, r, func(a *game.Attempt) error { _, err := a.Submit(); return err })
			r.Advance(cfg.CorrectDelay)
		default:
			t.Fatalf("view has no phase: %+v", v)
		}
	}
	t.Fatal("attempt did not finish")
}

func mustDo(t *testing.T, r *Runner, fn func(a *game.Attempt) error) {
	t.Helper()
	if err := r.Do(fn); err != nil {
		t.Fatalf("intent: %v", err)
	}
}

func TestCompletionCommitsLedger(t *testing.T) {
	reg, st, _ := newTestRegistry(t, 0)
	r, err := reg.Start(context.Background(), "ana", 1, 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	solve(t, r)

	v := r.View()
	if v.State != game.StateComplete || v.Stars != 3 {
		t.Fatalf("state = %s stars = %d", v.State, v.Stars)
	}
	if v.Saved == nil || !*v.Saved {
		t.Fatalf("saved = %v", v.Saved)
	}
	u, err := st.GetUser(context.Background(), "ana")
	if err != nil {
		t.Fatal(err)
	}
	if progress.Stars(u, "w1-s1") != 3 || !u.UnlockedLevelIDs.Has("w1-s2") {
		t.Fatalf("ledger = %+v unlocked %v", u.StarsByLevelID, u.UnlockedList())
	}
}

func TestStartRejectsLockedLevel(t *testing.T) {
	reg, _, _ := newTestRegistry(t, 0)
	if _, err := reg.Start(context.Background(), "ana", 1, 2); !errors.Is(err, ErrLocked) {
		t.Fatalf("err = %v", err)
	}
}

func TestStartRejectsMissingContent(t *testing.T) {
	reg, _, _ := newTestRegistry(t, 0)
	// Stage 1 is always unlocked, but world 99 has no words.
	if _, err := reg.Start(context.Background(), "ana", 99, 1); !errors.Is(err, content.ErrContentUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("len = %d", reg.Len())
	}
}

func TestOneAttemptPerUser(t *testing.T) {
	reg, _, _ := newTestRegistry(t, 0)
	ctx := context.Background()
	first, err := reg.Start(ctx, "ana", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := reg.Start(ctx, "ana", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if first.State() != game.StateAbandoned {
		t.Fatalf("first = %s", first.State())
	}
	if _, err := reg.Get(first.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(first) = %v", err)
	}
	if got, err := reg.Get(second.ID()); err != nil || got != second {
		t.Fatalf("Get(second) = %v, %v", got, err)
	}
	if _, err := reg.Start(ctx, "bo", 1, 1); err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 2 {
		t.Fatalf("len = %d", reg.Len())
	}
}

func TestMistakeIsRecorded(t *testing.T) {
	reg, st, _ := newTestRegistry(t, 0)
	r, err := reg.Start(context.Background(), "ana", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	v := r.View()
	w := findWord(t, r.Level(), func(w content.Word) bool { return w.English == v.Recognition.English })
	var wrong string
	for _, o := range v.Recognition.Options {
		if o != w.Native {
			wrong = o
			break
		}
	}
	var fb game.Feedback
	mustDo(t, r, func(a *game.Attempt) error {
		var err error
		fb, err = a.Select(wrong)
		return err
	})
	if fb != game.FeedbackWrong {
		t.Fatalf("feedback = %s", fb)
	}
	u, err := st.GetUser(context.Background(), "ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(u.Mistakes) != 1 || u.Mistakes[0].WordID != w.ID || u.Mistakes[0].Phase != "RECOGNITION" {
		t.Fatalf("mistakes = %+v", u.Mistakes)
	}
	if len(u.StarsByLevelID) != 0 {
		t.Fatalf("stars = %v", u.StarsByLevelID)
	}
}

func TestTimeoutLeavesLedgerUntouched(t *testing.T) {
	reg, st, _ := newTestRegistry(t, 0)
	r, err := reg.Start(context.Background(), "ana", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	r.Advance(10 * time.Second)
	v := r.View()
	if v.State != game.StateFailed {
		t.Fatalf("state = %s", v.State)
	}
	if v.Saved != nil {
		t.Fatalf("saved = %v", *v.Saved)
	}
	u, err := st.GetUser(context.Background(), "ana")
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		t.Fatal(err)
	}
	if progress.Stars(u, "w1-s1") != 0 || progress.IsUnlocked(u, "w1-s2") {
		t.Fatalf("ledger = %+v unlocked %v", u.StarsByLevelID, u.UnlockedList())
	}
}

func TestRetryAfterFailure(t *testing.T) {
	reg, _, _ := newTestRegistry(t, 0)
	r, err := reg.Start(context.Background(), "ana", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Retry(); !errors.Is(err, game.ErrInvalidIntent) {
		t.Fatalf("retry in play = %v", err)
	}
	r.Advance(11 * time.Second)
	v := r.View()
	if v.State != game.StateFailed || v.FailReason == "" {
		t.Fatalf("state = %s reason = %q", v.State, v.FailReason)
	}
	if err := r.Retry(); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	v = r.View()
	if v.State != game.StateRecognition || v.AttemptID != r.ID() || v.TimeRemaining != 10 {
		t.Fatalf("after retry = %+v", v)
	}
}

func TestSpeechCueInView(t *testing.T) {
	reg, _, _ := newTestRegistry(t, 0)
	r, err := reg.Start(context.Background(), "ana", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	v := r.View()
	w := findWord(t, r.Level(), func(w content.Word) bool { return w.English == v.Recognition.English })
	mustDo(t, r, func(a *game.Attempt) error { _, err := a.Select(w.Native); return err })
	v = r.View()
	if v.Speech == nil || v.Speech.Text != w.English {
		t.Fatalf("speech = %+v", v.Speech)
	}
}

func TestRemoveAbandons(t *testing.T) {
	reg, _, _ := newTestRegistry(t, 0)
	r, err := reg.Start(context.Background(), "ana", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Remove(r.ID()); err != nil {
		t.Fatal(err)
	}
	if r.State() != game.StateAbandoned {
		t.Fatalf("state = %s", r.State())
	}
	if err := r.Do(func(a *game.Attempt) error { return nil }); !errors.Is(err, game.ErrInvalidIntent) {
		t.Fatalf("Do after close = %v", err)
	}
	if _, err := reg.Remove(r.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove = %v", err)
	}
}

func TestSweepRemovesIdle(t *testing.T) {
	reg, _, clk := newTestRegistry(t, 0)
	ctx := context.Background()
	idle, err := reg.Start(ctx, "ana", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	busy, err := reg.Start(ctx, "bo", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	clk.Add(20 * time.Minute)
	_ = busy.Do(func(a *game.Attempt) error { return a.Replay() })
	clk.Add(15 * time.Minute)

	if n := reg.Sweep(30 * time.Minute); n != 1 {
		t.Fatalf("swept = %d", n)
	}
	if _, err := reg.Get(idle.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatal("idle attempt survived")
	}
	if _, err := reg.Get(busy.ID()); err != nil {
		t.Fatal("active attempt swept")
	}
	if idle.State() != game.StateAbandoned {
		t.Fatalf("idle state = %s", idle.State())
	}
}

func TestTickerDrivesCountdown(t *testing.T) {
	reg, _, clk := newTestRegistry(t, 2*time.Millisecond)
	r, err := reg.Start(context.Background(), "ana", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	clk.Add(11 * time.Second)
	deadline := time.Now().Add(2 * time.Second)
	for r.State() != game.StateFailed {
		if time.Now().After(deadline) {
			t.Fatalf("state = %s, want failed", r.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !strings.Contains(r.View().FailReason, "timed out") {
		t.Fatalf("reason = %q", r.View().FailReason)
	}
}

func TestStartSweeper(t *testing.T) {
	reg, _, _ := newTestRegistry(t, 0)
	if err := reg.StartSweeper(time.Minute, time.Hour); err != nil {
		t.Fatalf("StartSweeper: %v", err)
	}
	reg.Close()
	if reg.Len() != 0 {
		t.Fatalf("len = %d", reg.Len())
	}
}
