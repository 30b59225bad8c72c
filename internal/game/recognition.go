// internal/game/recognition.go
//
// Phase 1: recognition.
// Responsibilities:
//   - One multiple-choice question per word, text or audio prompt.
//   - Run the per-item countdown; expiry fails the attempt.
//   - Hold a correct answer briefly before moving to the next item.

package game

import (
	"github.com/robalobadob/pixelwords/internal/clock"
	"github.com/robalobadob/pixelwords/internal/content"
	"github.com/robalobadob/pixelwords/internal/quiz"
)

// recognition is phase 1: pick the native meaning of an English word.
// Each item gets a fresh countdown; expiry fails the attempt. Wrong answers
// never advance the item and do not touch the countdown.
type recognition struct {
	a     *Attempt
	words []content.Word
	idx   int

	options  []string
	mode     PromptMode
	feedback Feedback
	hint     bool
	busy     bool

	countdown *clock.Countdown
	reset     *clock.Timer
}

func newRecognition(a *Attempt, words []content.Word) *recognition {
	return &recognition{a: a, words: words, countdown: clock.NewCountdown(a.sched)}
}

func (r *recognition) kind() PhaseType { return PhaseRecognition }

func (r *recognition) enter() {
	r.idx = 0
	r.startItem()
}

func (r *recognition) current() content.Word { return r.words[r.idx] }

func (r *recognition) startItem() {
	w := r.current()
	cfg := r.a.cfg
	r.options = quiz.MultipleChoice(r.a.rng, w, r.a.pool, cfg.MCOptionCount)
	r.mode = PromptText
	if r.a.rng.Float64() < cfg.AudioModeChance {
		r.mode = PromptAudio
	}
	r.feedback = FeedbackNone
	r.hint = false
	r.busy = false
	r.a.itemStarted(r.idx)

	r.countdown.Start(cfg.RecognitionTimeLimitSeconds, nil, func() {
		r.a.fail(ErrPhaseTimeout)
	})
	if r.mode == PromptAudio {
		r.a.sched.After(cfg.AudioPromptDelay, func() { r.a.speak(w.English) })
	}
}

func (r *recognition) selectOption(option string) (Feedback, error) {
	if r.busy {
		return FeedbackNone, ErrBusy
	}
	if !contains(r.options, option) {
		return FeedbackNone, ErrInvalidIntent
	}
	w := r.current()
	if r.reset != nil {
		r.reset.Stop()
		r.reset = nil
	}

	if option == w.Native {
		r.feedback = FeedbackCorrect
		r.busy = true
		// Answered in time; the display delay cannot time the player out.
		r.countdown.Stop()
		r.a.speak(w.English)
		r.a.sched.After(r.a.cfg.CorrectDelay, r.next)
		return FeedbackCorrect, nil
	}

	r.feedback = FeedbackWrong
	r.hint = true
	r.a.mistake(w)
	r.reset = r.a.sched.After(r.a.cfg.WrongDelay, func() {
		r.feedback = FeedbackNone
		r.reset = nil
	})
	return FeedbackWrong, nil
}

func (r *recognition) next() {
	r.idx++
	if r.idx < len(r.words) {
		r.startItem()
		return
	}
	r.a.phaseDone()
}

func (r *recognition) replayText() string { return r.current().English }

func (r *recognition) render(v *View) {
	w := r.current()
	rv := &RecognitionView{
		Mode:    r.mode,
		Options: append([]string(nil), r.options...),
	}
	if r.mode == PromptText {
		rv.English = w.English
	}
	if r.hint {
		rv.Hint = &HintPair{English: w.English, Native: w.Native}
	}
	v.Feedback = r.feedback
	v.TimeRemaining = r.countdown.Remaining()
	v.ItemIndex = r.idx
	v.ItemCount = len(r.words)
	v.Recognition = rv
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
