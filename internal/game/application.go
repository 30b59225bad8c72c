// internal/game/application.go
//
// Phase 3: application.
// Responsibilities:
//   - Build the tile bag for a word's example sentence.
//   - Toggle tiles in and out of the answer; Submit checks the order and
//     a wrong sentence reshuffles the bag after the mistake delay.

package game

import (
	"github.com/robalobadob/pixelwords/internal/clock"
	"github.com/robalobadob/pixelwords/internal/content"
	"github.com/robalobadob/pixelwords/internal/quiz"
)

// Tile is one word tile of the sentence bag. IDs are stable until the bag
// is rebuilt.
type Tile struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// application is phase 3: rebuild the example sentence from shuffled tiles.
// The phase countdown is independent of items. The per-sentence mistake cap
// fails the attempt at once.
type application struct {
	a     *Attempt
	words []content.Word
	idx   int

	target    []string
	tiles     []Tile
	available []int
	selected  []int

	itemMistakes int
	phaseTotal   int
	feedback     Feedback
	busy         bool

	countdown *clock.Countdown
}

func newApplication(a *Attempt, words []content.Word) *application {
	return &application{a: a, words: words, countdown: clock.NewCountdown(a.sched)}
}

func (ap *application) kind() PhaseType { return PhaseApplication }

func (ap *application) enter() {
	ap.idx = 0
	ap.countdown.Start(ap.a.cfg.ApplicationTimeLimitSeconds, nil, func() {
		ap.a.fail(ErrPhaseTimeout)
	})
	ap.startItem()
}

func (ap *application) current() content.Word { return ap.words[ap.idx] }

func (ap *application) startItem() {
	w := ap.current()
	ap.target = quiz.SentenceTokens(w.Example)
	if len(ap.target) == 0 {
		// No usable example: the word alone is the sentence.
		ap.target = []string{w.English}
	}
	ap.itemMistakes = 0
	ap.rebuild()
	ap.a.itemStarted(ap.idx)
}

// rebuild reshuffles the bag and clears the selection.
func (ap *application) rebuild() {
	bag := quiz.TileBag(ap.a.rng, ap.target, quiz.FillerWords, ap.a.cfg.TileDistractors)
	ap.tiles = make([]Tile, len(bag))
	ap.available = make([]int, len(bag))
	for i, text := range bag {
		ap.tiles[i] = Tile{ID: i, Text: text}
		ap.available[i] = i
	}
	ap.selected = nil
	ap.feedback = FeedbackNone
	ap.busy = false
}

func (ap *application) toggle(id int) error {
	if ap.busy {
		return ErrBusy
	}
	if id < 0 || id >= len(ap.tiles) {
		return ErrInvalidIntent
	}
	if i := indexOf(ap.selected, id); i >= 0 {
		ap.selected = append(ap.selected[:i], ap.selected[i+1:]...)
		ap.available = append(ap.available, id)
		return nil
	}
	i := indexOf(ap.available, id)
	ap.available = append(ap.available[:i], ap.available[i+1:]...)
	ap.selected = append(ap.selected, id)
	return nil
}

func (ap *application) submit() (Feedback, error) {
	if ap.busy {
		return FeedbackNone, ErrBusy
	}
	if len(ap.selected) == 0 {
		return FeedbackNone, ErrInvalidIntent
	}
	got := make([]string, len(ap.selected))
	for i, id := range ap.selected {
		got[i] = ap.tiles[id].Text
	}
	w := ap.current()

	if quiz.SameSentence(got, ap.target) {
		ap.feedback = FeedbackCorrect
		ap.busy = true
		ap.a.speak(w.Example)
		ap.a.sched.After(ap.a.cfg.CorrectDelay, ap.next)
		return FeedbackCorrect, nil
	}

	ap.feedback = FeedbackWrong
	ap.itemMistakes++
	ap.phaseTotal++
	ap.a.mistake(w)
	if ap.itemMistakes >= ap.a.cfg.MaxMistakesPerApplicationItem {
		ap.a.fail(ErrMistakeThreshold)
		return FeedbackWrong, nil
	}
	ap.busy = true
	ap.a.sched.After(ap.a.cfg.MistakeDelay, ap.rebuild)
	return FeedbackWrong, nil
}

func (ap *application) next() {
	ap.idx++
	if ap.idx < len(ap.words) {
		ap.startItem()
		return
	}
	ap.a.complete(computeStars(ap.phaseTotal))
}

func (ap *application) replayText() string { return ap.current().Example }

func (ap *application) render(v *View) {
	w := ap.current()
	prompt := w.ExampleNative
	if prompt == "" {
		prompt = w.Native
	}
	av := &ApplicationView{
		Prompt:       prompt,
		Available:    ap.zone(ap.available),
		Selected:     ap.zone(ap.selected),
		Mistakes:     ap.itemMistakes,
		MistakesLeft: ap.a.cfg.MaxMistakesPerApplicationItem - ap.itemMistakes,
		CanSubmit:    !ap.busy && len(ap.selected) > 0,
	}
	v.Feedback = ap.feedback
	v.TimeRemaining = ap.countdown.Remaining()
	v.ItemIndex = ap.idx
	v.ItemCount = len(ap.words)
	v.Application = av
}

func (ap *application) zone(ids []int) []Tile {
	out := make([]Tile, len(ids))
	for i, id := range ids {
		out[i] = ap.tiles[id]
	}
	return out
}

func indexOf(list []int, v int) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
