// internal/game/types.go
//
// Core type definitions for the level quiz engine.
// Defines:
//   - State: lifecycle of one level attempt.
//   - PhaseType: the three quiz phases, as written to the mistake log.
//   - Feedback, PromptMode, ItemMode, Remedy: per-item enums.
//   - Observer / Speaker: the collaborators an attempt reports to.
//   - Sentinel errors returned by intents and exposed as fail reasons.

package game

import (
	"errors"

	"github.com/robalobadob/pixelwords/internal/content"
)

// State is the coarse lifecycle of an attempt.
//   - recognition → consolidation → application: in play.
//   - complete: all three phases cleared, stars awarded.
//   - failed:   a timer expired or the sentence mistake cap was hit.
//   - abandoned: the player left the level.
type State string

const (
	StateRecognition   State = "recognition"
	StateConsolidation State = "consolidation"
	StateApplication   State = "application"
	StateComplete      State = "complete"
	StateFailed        State = "failed"
	StateAbandoned     State = "abandoned"
)

// Over reports whether the attempt can no longer change.
func (s State) Over() bool {
	return s == StateComplete || s == StateFailed || s == StateAbandoned
}

// PhaseType names a phase in mistake records.
type PhaseType string

const (
	PhaseRecognition   PhaseType = "RECOGNITION"
	PhaseConsolidation PhaseType = "CONSOLIDATION"
	PhaseApplication   PhaseType = "APPLICATION"
)

// Feedback is the transient right/wrong flag shown after an answer.
type Feedback string

const (
	FeedbackNone    Feedback = "none"
	FeedbackCorrect Feedback = "correct"
	FeedbackWrong   Feedback = "wrong"
)

// PromptMode is how a recognition item is presented.
type PromptMode string

const (
	PromptText  PromptMode = "text"
	PromptAudio PromptMode = "audio"
)

// ItemMode is the consolidation challenge type of one item.
type ItemMode string

const (
	ModePartOfSpeech ItemMode = "pos"
	ModeSpelling     ItemMode = "spelling"
)

// Remedy is a consolidation hint choice offered after repeated mistakes.
type Remedy string

const (
	RemedyExample Remedy = "example" // show the example sentence
	RemedyFlash   Remedy = "flash"   // briefly highlight the next answer
)

var (
	// ErrPhaseTimeout: a phase countdown reached zero.
	ErrPhaseTimeout = errors.New("phase timed out")
	// ErrMistakeThreshold: too many wrong submissions on one sentence.
	ErrMistakeThreshold = errors.New("mistake threshold exceeded")
	// ErrInvalidIntent: the intent does not apply to the current item or the attempt is over.
	ErrInvalidIntent = errors.New("invalid intent")
	// ErrBusy: feedback for the previous answer is still showing.
	ErrBusy = errors.New("feedback pending")
	// ErrRemedyRequired: the hint menu is open and a remedy must be chosen first.
	ErrRemedyRequired = errors.New("choose a hint first")
)

// Observer receives attempt events. Calls are synchronous and happen on the
// goroutine that drives the attempt.
type Observer interface {
	OnMistake(word content.Word, phase PhaseType)
	OnProgress(index int)
	OnComplete(stars int)
	OnFail(reason error)
}

// Speaker pronounces text. Implementations must not block.
type Speaker interface {
	Speak(text, lang string)
}

type nopObserver struct{}

func (nopObserver) OnMistake(content.Word, PhaseType) {}
func (nopObserver) OnProgress(int)                    {}
func (nopObserver) OnComplete(int)                    {}
func (nopObserver) OnFail(error)                      {}

type nopSpeaker struct{}

func (nopSpeaker) Speak(string, string) {}
