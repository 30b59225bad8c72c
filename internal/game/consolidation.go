// internal/game/consolidation.go
//
// Phase 2: consolidation.
// Responsibilities:
//   - Per item, either a part-of-speech choice (wrong picks are disabled)
//     or a spelling fill of the blanked letters, case-insensitive.
//   - One countdown for the whole phase; expiry fails the attempt.
//   - Remedy gate: enough mistakes on an item open the hint menu, and
//     answers are refused until an example or flash hint is taken.

package game

import (
	"unicode"

	"github.com/zyedidia/generic/mapset"

	"github.com/robalobadob/pixelwords/internal/clock"
	"github.com/robalobadob/pixelwords/internal/content"
	"github.com/robalobadob/pixelwords/internal/quiz"
)

// consolidation is phase 2. Each item is either a part-of-speech choice or
// a left-to-right spelling fill. One countdown covers the whole phase.
//
// After ConsolidationHintThreshold mistakes on an item the remedy menu
// opens; answers are refused until the player picks a remedy.
type consolidation struct {
	a     *Attempt
	words []content.Word
	idx   int

	mode         ItemMode
	disabled     mapset.Set[content.PartOfSpeech]
	letters      []rune
	blanks       []int
	filled       int
	itemMistakes int

	menuOpen    bool
	showExample bool
	highlight   string
	feedback    Feedback
	busy        bool

	countdown      *clock.Countdown
	feedbackTimer  *clock.Timer
	highlightTimer *clock.Timer
}

func newConsolidation(a *Attempt, words []content.Word) *consolidation {
	return &consolidation{a: a, words: words, countdown: clock.NewCountdown(a.sched)}
}

func (c *consolidation) kind() PhaseType { return PhaseConsolidation }

func (c *consolidation) enter() {
	c.idx = 0
	c.countdown.Start(c.a.cfg.ConsolidationTimeLimitSeconds, nil, func() {
		c.a.fail(ErrPhaseTimeout)
	})
	c.startItem()
}

func (c *consolidation) current() content.Word { return c.words[c.idx] }

func (c *consolidation) startItem() {
	w := c.current()
	c.mode = ModePartOfSpeech
	if quiz.CanSpell(w.English) && c.a.rng.Float64() < 0.5 {
		c.mode = ModeSpelling
	}
	c.disabled = mapset.New[content.PartOfSpeech]()
	c.letters = []rune(w.English)
	c.blanks = nil
	if c.mode == ModeSpelling {
		c.blanks = quiz.SpellingBlanks(c.a.rng, w.English)
	}
	c.filled = 0
	c.itemMistakes = 0
	c.menuOpen = false
	c.showExample = false
	c.busy = false
	c.feedback = FeedbackNone
	c.clearHighlight()
	c.stopFeedbackTimer()
	c.a.itemStarted(c.idx)
}

func (c *consolidation) guard() error {
	if c.busy {
		return ErrBusy
	}
	if c.menuOpen {
		return ErrRemedyRequired
	}
	return nil
}

func (c *consolidation) chooseCategory(pos content.PartOfSpeech) (Feedback, error) {
	if c.mode != ModePartOfSpeech {
		return FeedbackNone, ErrInvalidIntent
	}
	if err := c.guard(); err != nil {
		return FeedbackNone, err
	}
	p, err := content.ParsePartOfSpeech(string(pos))
	if err != nil || c.disabled.Has(p) {
		return FeedbackNone, ErrInvalidIntent
	}
	if p == c.current().POS {
		c.itemDone()
		return FeedbackCorrect, nil
	}
	c.disabled.Put(p)
	c.mistake()
	return FeedbackWrong, nil
}

func (c *consolidation) typeLetter(r rune) (Feedback, error) {
	if c.mode != ModeSpelling {
		return FeedbackNone, ErrInvalidIntent
	}
	if err := c.guard(); err != nil {
		return FeedbackNone, err
	}
	if c.filled >= len(c.blanks) {
		return FeedbackNone, ErrInvalidIntent
	}
	want := c.letters[c.blanks[c.filled]]
	if unicode.ToLower(r) != unicode.ToLower(want) {
		c.mistake()
		return FeedbackWrong, nil
	}
	c.filled++
	c.clearHighlight()
	if c.filled == len(c.blanks) {
		c.itemDone()
		return FeedbackCorrect, nil
	}
	c.stopFeedbackTimer()
	c.feedback = FeedbackNone
	return FeedbackCorrect, nil
}

func (c *consolidation) requestHint(remedy Remedy) error {
	if c.busy {
		return ErrBusy
	}
	if !c.menuOpen {
		return ErrInvalidIntent
	}
	switch remedy {
	case RemedyExample:
		c.showExample = true
	case RemedyFlash:
		c.clearHighlight()
		if c.mode == ModeSpelling {
			c.highlight = string(c.letters[c.blanks[c.filled]])
		} else {
			c.highlight = string(c.current().POS)
		}
		c.highlightTimer = c.a.sched.After(c.a.cfg.HighlightDuration, func() {
			c.highlight = ""
			c.highlightTimer = nil
		})
	default:
		return ErrInvalidIntent
	}
	c.menuOpen = false
	return nil
}

func (c *consolidation) mistake() {
	c.itemMistakes++
	c.a.mistake(c.current())
	c.feedback = FeedbackWrong
	c.stopFeedbackTimer()
	c.feedbackTimer = c.a.sched.After(c.a.cfg.MistakeDelay, func() {
		c.feedback = FeedbackNone
		c.feedbackTimer = nil
	})
	if c.itemMistakes >= c.a.cfg.ConsolidationHintThreshold {
		c.menuOpen = true
	}
}

func (c *consolidation) itemDone() {
	c.stopFeedbackTimer()
	c.clearHighlight()
	c.feedback = FeedbackCorrect
	c.busy = true
	c.menuOpen = false
	c.a.speak(c.current().English)
	c.a.sched.After(c.a.cfg.CorrectDelay, c.next)
}

func (c *consolidation) next() {
	c.idx++
	if c.idx < len(c.words) {
		c.startItem()
		return
	}
	c.a.phaseDone()
}

func (c *consolidation) stopFeedbackTimer() {
	if c.feedbackTimer != nil {
		c.feedbackTimer.Stop()
		c.feedbackTimer = nil
	}
}

func (c *consolidation) clearHighlight() {
	if c.highlightTimer != nil {
		c.highlightTimer.Stop()
		c.highlightTimer = nil
	}
	c.highlight = ""
}

func (c *consolidation) replayText() string { return c.current().English }

func (c *consolidation) render(v *View) {
	w := c.current()
	cv := &ConsolidationView{
		Mode:       c.mode,
		Native:     w.Native,
		RemedyMenu: c.menuOpen,
		Highlight:  c.highlight,
		Mistakes:   c.itemMistakes,
	}
	if c.showExample {
		cv.Example = w.Example
		cv.ExampleNative = w.ExampleNative
	}
	switch c.mode {
	case ModePartOfSpeech:
		cv.English = w.English
		cv.Categories = append([]content.PartOfSpeech(nil), content.PartsOfSpeech...)
		for _, p := range content.PartsOfSpeech {
			if c.disabled.Has(p) {
				cv.Disabled = append(cv.Disabled, p)
			}
		}
	case ModeSpelling:
		cv.Template = c.template()
		cv.Cursor = -1
		if c.filled < len(c.blanks) {
			cv.Cursor = c.blanks[c.filled]
		}
	}
	v.Feedback = c.feedback
	v.TimeRemaining = c.countdown.Remaining()
	v.ItemIndex = c.idx
	v.ItemCount = len(c.words)
	v.Consolidation = cv
}

// template renders the word with unfilled blanks as "_".
func (c *consolidation) template() []string {
	open := mapset.New[int]()
	for _, b := range c.blanks[c.filled:] {
		open.Put(b)
	}
	out := make([]string, len(c.letters))
	for i, l := range c.letters {
		if open.Has(i) {
			out[i] = "_"
		} else {
			out[i] = string(l)
		}
	}
	return out
}
