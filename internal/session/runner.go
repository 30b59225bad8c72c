// internal/session/runner.go
//
// Runner drives one level attempt for one player.
// Responsibilities:
//   - Serialize player intents and clock ticks behind one mutex; the attempt
//     itself is single-threaded.
//   - Wall-clock ticker that feeds elapsed time into Attempt.Advance, stopped
//     as soon as the attempt ends.
//   - Observer side effects: mistakes and completions are written to the
//     progress ledger (best effort, logged on failure).
//   - Speech cues through a speech.Player.
//
// With Options.Tick <= 0 the runner has no ticker and time only moves through
// Runner.Advance (tests).

package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pixelwords/internal/config"
	"github.com/robalobadob/pixelwords/internal/content"
	"github.com/robalobadob/pixelwords/internal/game"
	"github.com/robalobadob/pixelwords/internal/progress"
	"github.com/robalobadob/pixelwords/internal/speech"
	"github.com/robalobadob/pixelwords/internal/store"
)

const saveTimeout = 5 * time.Second

// Options is shared by the registry and every runner it creates.
type Options struct {
	Config config.Game
	Pool   *content.Pool
	Store  store.Store
	// Tick is the wall-clock resolution; <= 0 disables the ticker.
	Tick time.Duration
	// Seed fixes the attempt RNG; 0 seeds from the clock.
	Seed  int64
	Synth speech.SynthFunc
	Now   func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Config == (config.Game{}) {
		o.Config = config.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// View is the attempt render state plus session metadata.
type View struct {
	AttemptID string `json:"attemptId"`
	UserID    string `json:"userId"`
	game.View
	// Saved is set once a completed attempt has been committed (or not).
	Saved  *bool             `json:"saved,omitempty"`
	Speech *speech.Utterance `json:"speech,omitempty"`
}

// Runner owns one attempt.
type Runner struct {
	id       string
	userID   string
	level    content.Level
	opts     Options
	rng      *rand.Rand
	player   *speech.Player
	mu       sync.Mutex
	attempt  *game.Attempt
	saved    *bool
	lastTick time.Time
	active   time.Time
	stop     chan struct{}
	done     chan struct{}
	closed   bool
}

func newRunner(id, userID string, level content.Level, opts Options) (*Runner, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = opts.Now().UnixNano()
	}
	r := &Runner{
		id:     id,
		userID: userID,
		level:  level,
		opts:   opts,
		rng:    rand.New(rand.NewSource(seed)),
		player: speech.NewPlayer(opts.Synth),
		active: opts.Now(),
	}
	if err := r.begin(); err != nil {
		r.player.Close()
		return nil, err
	}
	return r, nil
}

// begin builds a fresh attempt and starts its ticker. Caller holds mu or owns r.
func (r *Runner) begin() error {
	a, err := game.NewAttempt(game.Options{
		Level:       r.level,
		Distractors: r.opts.Pool.Words(r.level.WorldID),
		Config:      r.opts.Config,
		Rand:        r.rng,
		Speaker:     r.player,
		Observer:    ledger{r},
	})
	if err != nil {
		return err
	}
	r.attempt = a
	r.saved = nil
	r.startTicker(a)
	return nil
}

// ID is the attempt identifier.
func (r *Runner) ID() string { return r.id }

// UserID is the player who owns the attempt.
func (r *Runner) UserID() string { return r.userID }

// Level is the level being played.
func (r *Runner) Level() content.Level { return r.level }

// LastActive is when the player last sent an intent.
func (r *Runner) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// State reports the attempt lifecycle state.
func (r *Runner) State() game.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempt.State()
}

// Do applies one intent. The attempt clock is brought up to date first so the
// intent sees the current countdowns.
func (r *Runner) Do(fn func(a *game.Attempt) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return game.ErrInvalidIntent
	}
	r.syncLocked()
	r.active = r.opts.Now()
	return fn(r.attempt)
}

// Advance moves the attempt clock by d. Used when the ticker is disabled.
func (r *Runner) Advance(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempt.Advance(d)
}

// View renders the attempt.
func (r *Runner) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncLocked()
	v := View{AttemptID: r.id, UserID: r.userID, View: r.attempt.View(), Saved: r.saved}
	if u, ok := r.player.Last(); ok {
		v.Speech = &u
	}
	return v
}

// Retry restarts the same level after a failure. The attempt id is kept.
func (r *Runner) Retry() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.attempt.State() != game.StateFailed {
		return game.ErrInvalidIntent
	}
	r.stopTickerLocked()
	r.active = r.opts.Now()
	log.Info().Str("attempt", r.id).Str("user", r.userID).Str("level", r.level.ID).Msg("retry")
	return r.begin()
}

// Close abandons an attempt still in play and releases the ticker and speaker.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	if !r.attempt.State().Over() {
		_ = r.attempt.Abandon()
	}
	r.stopTickerLocked()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
	r.player.Close()
}

// ---- ticker ----

func (r *Runner) startTicker(a *game.Attempt) {
	if r.opts.Tick <= 0 {
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})
	r.stop, r.done = stop, done
	r.lastTick = r.opts.Now()
	go func() {
		defer close(done)
		t := time.NewTicker(r.opts.Tick)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				r.mu.Lock()
				if r.attempt != a {
					r.mu.Unlock()
					return
				}
				r.syncLocked()
				over := a.State().Over()
				r.mu.Unlock()
				if over {
					return
				}
			}
		}
	}()
}

func (r *Runner) stopTickerLocked() {
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}

// syncLocked feeds wall-clock time elapsed since the last tick into the attempt.
func (r *Runner) syncLocked() {
	if r.opts.Tick <= 0 || r.attempt.State().Over() {
		return
	}
	now := r.opts.Now()
	if d := now.Sub(r.lastTick); d > 0 {
		r.attempt.Advance(d)
	}
	r.lastTick = now
}

// ---- ledger side effects ----

// ledger is the attempt observer. It runs under the runner mutex.
type ledger struct{ r *Runner }

func (l ledger) OnMistake(w content.Word, phase game.PhaseType) {
	now := l.r.opts.Now()
	err := l.r.commit(func(u *progress.User) {
		progress.RecordMistake(u, w.ID, string(phase), now)
	})
	if err != nil {
		log.Warn().Err(err).Str("user", l.r.userID).Str("word", w.ID).Msg("record mistake")
	}
}

func (l ledger) OnProgress(int) {}

func (l ledger) OnComplete(stars int) {
	r := l.r
	var unlocked []string
	next, ok := progress.ComputeUnlocks(r.level.WorldID, r.level.StageNum, r.opts.Config.MaxStagesPerWorld, r.opts.Pool.HasWorld)
	if ok {
		unlocked = append(unlocked, next)
	}
	now := r.opts.Now()
	err := r.commit(func(u *progress.User) {
		progress.RecordCompletion(u, r.level.ID, stars, unlocked, now)
	})
	saved := err == nil
	r.saved = &saved
	ev := log.Info()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Str("attempt", r.id).Str("user", r.userID).Str("level", r.level.ID).
		Int("stars", stars).Strs("unlocked", unlocked).Bool("saved", saved).Msg("level complete")
}

func (l ledger) OnFail(reason error) {
	log.Info().Str("attempt", l.r.id).Str("user", l.r.userID).Str("level", l.r.level.ID).
		Str("reason", reason.Error()).Msg("level failed")
}

// commit re-reads the stored record, applies fn and saves it, so concurrent
// profile edits (hero choice) are not overwritten by a stale copy.
func (r *Runner) commit(fn func(u *progress.User)) error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	u, err := r.opts.Store.GetUser(ctx, r.userID)
	if errors.Is(err, store.ErrNotFound) {
		u, err = progress.NewUser(r.userID, r.opts.Now()), nil
	}
	if err != nil {
		return err
	}
	fn(u)
	return r.opts.Store.SaveUser(ctx, u)
}
