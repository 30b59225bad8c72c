// internal/speech/speech.go
//
// Pronunciation collaborator for the game engines.
// Responsibilities:
//   - Player: one utterance at a time. A new Speak cancels the one in
//     flight, then hands the text to a pluggable synthesizer.
//   - Last: the latest utterance cue, exposed to clients that do the actual
//     audio playback (the browser speaks what the server cues).
//   - Failures are logged and never reach the game.

package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// SynthFunc renders one utterance. It should return promptly once ctx is done.
type SynthFunc func(ctx context.Context, text, lang string) error

// Utterance is one pronunciation request.
type Utterance struct {
	Seq  uint64 `json:"seq"`
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// Player serializes utterances for one speaker resource.
type Player struct {
	synth SynthFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	last   Utterance
	closed bool
	wg     sync.WaitGroup
}

// NewPlayer returns a Player using synth (LogSynth if nil).
func NewPlayer(synth SynthFunc) *Player {
	if synth == nil {
		synth = LogSynth
	}
	return &Player{synth: synth}
}

// Speak interrupts any in-flight utterance and starts text. It never blocks.
func (p *Player) Speak(text, lang string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.last = Utterance{Seq: p.last.Seq + 1, Text: text, Lang: lang}

	p.wg.Add(1)
	go func(u Utterance) {
		defer p.wg.Done()
		defer cancel()
		if err := p.synth(ctx, u.Text, u.Lang); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Str("text", u.Text).Str("lang", u.Lang).Msg("speech failed")
		}
	}(p.last)
}

// Last returns the most recent utterance, if any.
func (p *Player) Last() (Utterance, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.last.Seq > 0
}

// Close cancels the in-flight utterance and waits for it to return.
func (p *Player) Close() {
	p.mu.Lock()
	p.closed = true
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// LogSynth records the utterance at debug level; the client does the audio.
func LogSynth(ctx context.Context, text, lang string) error {
	log.Debug().Str("text", text).Str("lang", lang).Msg("speak")
	return nil
}

// Nop discards every utterance.
type Nop struct{}

func (Nop) Speak(string, string) {}
