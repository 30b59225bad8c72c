// internal/game/engine.go
//
// Level attempt orchestrator.
// Responsibilities:
//   - Build the per-phase word orderings and run the three phase engines
//     in order: recognition → consolidation → application.
//   - Route player intents to the active phase; reject intents that do
//     not apply (ErrInvalidIntent) or arrive during feedback (ErrBusy).
//   - Track mistakes per phase and the level-relative progress index.
//   - Terminal transitions: complete (stars), failed (reason), abandoned.
//     Every pending timer is cancelled on phase exit and on termination.
//
// Notes:
//   - An Attempt is single-threaded. Time only moves through Advance, which
//     drives the attempt's clock.Scheduler; the session runner serializes
//     intents and ticks.
//   - Observer callbacks run synchronously inside the intent/tick that
//     caused them. Nothing is emitted once the attempt is over.
package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/robalobadob/pixelwords/internal/clock"
	"github.com/robalobadob/pixelwords/internal/config"
	"github.com/robalobadob/pixelwords/internal/content"
)

// Options configures NewAttempt. Only Level is required.
type Options struct {
	Level content.Level
	// Distractors is the candidate pool for multiple-choice meanings,
	// normally the whole world's word list. Defaults to the level words.
	Distractors []content.Word
	Config      config.Game
	Rand        *rand.Rand
	Speaker     Speaker
	Observer    Observer
	Scheduler   *clock.Scheduler
}

// phase is the tagged union of the three engines.
type phase interface {
	kind() PhaseType
	enter()
	render(v *View)
	replayText() string
}

// Attempt is one play-through of a level.
type Attempt struct {
	cfg     config.Game
	level   content.Level
	words   content.PhaseWordSet
	pool    []content.Word
	rng     *rand.Rand
	sched   *clock.Scheduler
	speaker Speaker
	obs     Observer

	state      State
	phase      phase
	mistakes   map[PhaseType]int
	progress   int
	stars      int
	failReason error
}

// NewAttempt shuffles the level words and enters the recognition phase.
// A level without words is rejected with content.ErrContentUnavailable.
func NewAttempt(opts Options) (*Attempt, error) {
	if len(opts.Level.Words) == 0 {
		return nil, fmt.Errorf("level %s: %w", opts.Level.ID, content.ErrContentUnavailable)
	}
	cfg := opts.Config
	if cfg == (config.Game{}) {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Attempt{
		cfg:      cfg,
		level:    opts.Level,
		pool:     opts.Distractors,
		rng:      opts.Rand,
		sched:    opts.Scheduler,
		speaker:  opts.Speaker,
		obs:      opts.Observer,
		mistakes: make(map[PhaseType]int, 3),
	}
	if len(a.pool) == 0 {
		a.pool = opts.Level.Words
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if a.sched == nil {
		a.sched = clock.NewScheduler()
	}
	if a.speaker == nil {
		a.speaker = nopSpeaker{}
	}
	if a.obs == nil {
		a.obs = nopObserver{}
	}
	a.words = content.NewPhaseWordSet(a.rng, opts.Level.Words)
	a.enterPhase(StateRecognition, newRecognition(a, a.words.Recognition))
	return a, nil
}

// ---- accessors ----

// State reports the lifecycle state.
func (a *Attempt) State() State { return a.state }

// Level is the level being played.
func (a *Attempt) Level() content.Level { return a.level }

// Stars is the result of a completed attempt (0 otherwise).
func (a *Attempt) Stars() int { return a.stars }

// FailReason is ErrPhaseTimeout or ErrMistakeThreshold once failed.
func (a *Attempt) FailReason() error { return a.failReason }

// Mistakes returns a copy of the per-phase mistake counts.
func (a *Attempt) Mistakes() map[PhaseType]int {
	out := make(map[PhaseType]int, len(a.mistakes))
	for k, v := range a.mistakes {
		out[k] = v
	}
	return out
}

// TotalMistakes sums mistakes across phases.
func (a *Attempt) TotalMistakes() int {
	n := 0
	for _, v := range a.mistakes {
		n += v
	}
	return n
}

// Pending is the number of live timers; zero once the attempt is over.
func (a *Attempt) Pending() int { return a.sched.Pending() }

// Now is the attempt's virtual clock.
func (a *Attempt) Now() time.Duration { return a.sched.Now() }

// ---- intents ----

// Advance moves the attempt clock forward, firing ticks and delays.
func (a *Attempt) Advance(d time.Duration) {
	if a.state.Over() {
		return
	}
	a.sched.Advance(d)
}

// Select answers a recognition item with one of the offered meanings.
func (a *Attempt) Select(option string) (Feedback, error) {
	r, ok := a.phase.(*recognition)
	if !ok || a.state.Over() {
		return FeedbackNone, ErrInvalidIntent
	}
	return r.selectOption(option)
}

// ChooseCategory answers a part-of-speech item.
func (a *Attempt) ChooseCategory(pos content.PartOfSpeech) (Feedback, error) {
	c, ok := a.phase.(*consolidation)
	if !ok || a.state.Over() {
		return FeedbackNone, ErrInvalidIntent
	}
	return c.chooseCategory(pos)
}

// TypeLetter fills the next blank of a spelling item.
func (a *Attempt) TypeLetter(r rune) (Feedback, error) {
	c, ok := a.phase.(*consolidation)
	if !ok || a.state.Over() {
		return FeedbackNone, ErrInvalidIntent
	}
	return c.typeLetter(r)
}

// RequestHint picks a remedy from the consolidation hint menu.
func (a *Attempt) RequestHint(remedy Remedy) error {
	c, ok := a.phase.(*consolidation)
	if !ok || a.state.Over() {
		return ErrInvalidIntent
	}
	return c.requestHint(remedy)
}

// ToggleTile moves an application tile between the available and selected zones.
func (a *Attempt) ToggleTile(tileID int) error {
	ap, ok := a.phase.(*application)
	if !ok || a.state.Over() {
		return ErrInvalidIntent
	}
	return ap.toggle(tileID)
}

// Submit checks the selected tiles against the target sentence.
func (a *Attempt) Submit() (Feedback, error) {
	ap, ok := a.phase.(*application)
	if !ok || a.state.Over() {
		return FeedbackNone, ErrInvalidIntent
	}
	return ap.submit()
}

// Replay pronounces the current item again.
func (a *Attempt) Replay() error {
	if a.state.Over() || a.phase == nil {
		return ErrInvalidIntent
	}
	a.speak(a.phase.replayText())
	return nil
}

// Abandon leaves the level. Pending timers are cancelled and no events fire.
func (a *Attempt) Abandon() error {
	if a.state.Over() {
		return ErrInvalidIntent
	}
	a.state = StateAbandoned
	a.sched.StopAll()
	return nil
}

// ---- transitions (called by the engines) ----

func (a *Attempt) enterPhase(s State, p phase) {
	a.sched.StopAll()
	a.state = s
	a.phase = p
	p.enter()
}

// phaseDone moves to the next phase. Application completes via complete.
func (a *Attempt) phaseDone() {
	if a.state.Over() {
		return
	}
	switch a.state {
	case StateRecognition:
		a.enterPhase(StateConsolidation, newConsolidation(a, a.words.Consolidation))
	case StateConsolidation:
		a.enterPhase(StateApplication, newApplication(a, a.words.Application))
	}
}

func (a *Attempt) complete(stars int) {
	if a.state.Over() {
		return
	}
	a.sched.StopAll()
	a.state = StateComplete
	a.stars = stars
	a.progress = a.progressTotal()
	a.obs.OnComplete(stars)
}

func (a *Attempt) fail(reason error) {
	if a.state.Over() {
		return
	}
	a.sched.StopAll()
	a.state = StateFailed
	a.failReason = reason
	a.obs.OnFail(reason)
}

func (a *Attempt) mistake(w content.Word) {
	p := a.phase.kind()
	a.mistakes[p]++
	a.obs.OnMistake(w, p)
}

// itemStarted publishes the level-relative progress index for the phase-local index.
func (a *Attempt) itemStarted(local int) {
	a.progress = phaseOffset(a.phase.kind(), len(a.level.Words)) + local
	a.obs.OnProgress(a.progress)
}

func (a *Attempt) speak(text string) {
	if text == "" {
		return
	}
	a.speaker.Speak(text, a.cfg.SpeechLanguage)
}

func (a *Attempt) progressTotal() int { return 3 * len(a.level.Words) }

func phaseOffset(p PhaseType, n int) int {
	switch p {
	case PhaseConsolidation:
		return n
	case PhaseApplication:
		return 2 * n
	}
	return 0
}

// computeStars maps application-phase mistakes to a 1..3 rating.
func computeStars(mistakes int) int {
	switch {
	case mistakes == 0:
		return 3
	case mistakes < 4:
		return 2
	default:
		return 1
	}
}
