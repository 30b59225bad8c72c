// internal/session/registry.go
//
// Registry of live attempts.
// Responsibilities:
//   - Start: validate the unlock rule and content, then create a Runner under
//     a fresh uuid. A player has at most one live attempt; starting another
//     abandons the previous one.
//   - Lookup and removal by attempt id.
//   - Sweep: close attempts idle longer than a window, scheduled with gocron.

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pixelwords/internal/content"
	"github.com/robalobadob/pixelwords/internal/progress"
	"github.com/robalobadob/pixelwords/internal/store"
)

var (
	// ErrLocked: the level is not unlocked for the player.
	ErrLocked = errors.New("level locked")
	// ErrNotFound: no live attempt with that id.
	ErrNotFound = errors.New("attempt not found")
)

// Registry holds the live runners.
type Registry struct {
	opts Options

	mu      sync.Mutex
	runners map[string]*Runner // by attempt id
	byUser  map[string]string  // user id -> attempt id
	cron    *gocron.Scheduler
}

// NewRegistry returns an empty registry. Pool and Store are required.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:    opts.withDefaults(),
		runners: make(map[string]*Runner),
		byUser:  make(map[string]string),
	}
}

// Start opens an attempt at world/stage for userID.
func (g *Registry) Start(ctx context.Context, userID string, worldID, stageNum int) (*Runner, error) {
	levelID := content.LevelID(worldID, stageNum)
	u, err := g.opts.Store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		u, err = progress.NewUser(userID, g.opts.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !progress.IsUnlocked(u, levelID) {
		return nil, fmt.Errorf("%s: %w", levelID, ErrLocked)
	}
	level, err := g.opts.Pool.Level(worldID, stageNum, g.opts.Config.WordsPerStage)
	if err != nil {
		return nil, err
	}

	r, err := newRunner(uuid.NewString(), userID, level, g.opts)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	prev := g.runners[g.byUser[userID]]
	if prev != nil {
		delete(g.runners, prev.ID())
	}
	g.runners[r.ID()] = r
	g.byUser[userID] = r.ID()
	g.mu.Unlock()

	if prev != nil {
		prev.Close()
		log.Info().Str("attempt", prev.ID()).Str("user", userID).Msg("replaced by new attempt")
	}
	log.Info().Str("attempt", r.ID()).Str("user", userID).Str("level", levelID).Msg("attempt started")
	return r, nil
}

// Get returns the runner for id.
func (g *Registry) Get(id string) (*Runner, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.runners[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// Remove closes (abandoning if still in play) and forgets the attempt.
func (g *Registry) Remove(id string) (*Runner, error) {
	g.mu.Lock()
	r, ok := g.runners[id]
	if ok {
		g.forgetLocked(r)
	}
	g.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	r.Close()
	return r, nil
}

// Len is the number of live attempts.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.runners)
}

// Sweep closes attempts with no intent for longer than idle and returns how
// many were removed.
func (g *Registry) Sweep(idle time.Duration) int {
	cutoff := g.opts.Now().Add(-idle)
	var stale []*Runner
	g.mu.Lock()
	for _, r := range g.runners {
		if r.LastActive().Before(cutoff) {
			stale = append(stale, r)
			g.forgetLocked(r)
		}
	}
	g.mu.Unlock()
	for _, r := range stale {
		r.Close()
		log.Debug().Str("attempt", r.ID()).Str("user", r.UserID()).Msg("swept idle attempt")
	}
	return len(stale)
}

// StartSweeper runs Sweep(idle) every interval until Close.
func (g *Registry) StartSweeper(every, idle time.Duration) error {
	s := gocron.NewScheduler(time.UTC)
	if _, err := s.Every(every).Do(func() {
		if n := g.Sweep(idle); n > 0 {
			log.Info().Int("removed", n).Msg("idle attempts swept")
		}
	}); err != nil {
		return fmt.Errorf("schedule sweeper: %w", err)
	}
	s.StartAsync()
	g.mu.Lock()
	g.cron = s
	g.mu.Unlock()
	return nil
}

// Close stops the sweeper and closes every attempt.
func (g *Registry) Close() {
	g.mu.Lock()
	cron := g.cron
	g.cron = nil
	all := make([]*Runner, 0, len(g.runners))
	for _, r := range g.runners {
		all = append(all, r)
	}
	g.runners = make(map[string]*Runner)
	g.byUser = make(map[string]string)
	g.mu.Unlock()

	if cron != nil {
		cron.Stop()
	}
	for _, r := range all {
		r.Close()
	}
}

func (g *Registry) forgetLocked(r *Runner) {
	delete(g.runners, r.ID())
	if g.byUser[r.UserID()] == r.ID() {
		delete(g.byUser, r.UserID())
	}
}
