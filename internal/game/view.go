// internal/game/view.go
//
// Render state of an attempt, one sub-view per phase.

package game

import "github.com/robalobadob/pixelwords/internal/content"

// View is the render state of an attempt. Exactly one of the phase views
// is set while the attempt is in play; none once it is over.
type View struct {
	LevelID         string            `json:"levelId"`
	State           State             `json:"state"`
	Phase           PhaseType         `json:"phase,omitempty"`
	ProgressIndex   int               `json:"progressIndex"`
	ProgressTotal   int               `json:"progressTotal"`
	ProgressPercent int               `json:"progressPercent"`
	ItemIndex       int               `json:"itemIndex"`
	ItemCount       int               `json:"itemCount"`
	TimeRemaining   int               `json:"timeRemaining"`
	Feedback        Feedback          `json:"feedback"`
	Mistakes        map[PhaseType]int `json:"mistakes"`
	Stars           int               `json:"stars,omitempty"`
	FailReason      string            `json:"failReason,omitempty"`

	Recognition   *RecognitionView   `json:"recognition,omitempty"`
	Consolidation *ConsolidationView `json:"consolidation,omitempty"`
	Application   *ApplicationView   `json:"application,omitempty"`
}

// HintPair is the recall hint shown after a wrong recognition answer.
type HintPair struct {
	English string `json:"english"`
	Native  string `json:"native"`
}

type RecognitionView struct {
	Mode    PromptMode `json:"mode"`
	English string     `json:"english,omitempty"` // empty in audio mode
	Options []string   `json:"options"`
	Hint    *HintPair  `json:"hint,omitempty"`
}

type ConsolidationView struct {
	Mode          ItemMode               `json:"mode"`
	English       string                 `json:"english,omitempty"`
	Native        string                 `json:"native"`
	Categories    []content.PartOfSpeech `json:"categories,omitempty"`
	Disabled      []content.PartOfSpeech `json:"disabled,omitempty"`
	Template      []string               `json:"template,omitempty"`
	Cursor        int                    `json:"cursor"`
	Mistakes      int                    `json:"mistakes"`
	RemedyMenu    bool                   `json:"remedyMenu"`
	Example       string                 `json:"example,omitempty"`
	ExampleNative string                 `json:"exampleNative,omitempty"`
	Highlight     string                 `json:"highlight,omitempty"`
}

type ApplicationView struct {
	Prompt       string `json:"prompt"`
	Available    []Tile `json:"available"`
	Selected     []Tile `json:"selected"`
	Mistakes     int    `json:"mistakes"`
	MistakesLeft int    `json:"mistakesLeft"`
	CanSubmit    bool   `json:"canSubmit"`
}

// View renders the current state. It has no side effects.
func (a *Attempt) View() View {
	total := a.progressTotal()
	v := View{
		LevelID:       a.level.ID,
		State:         a.state,
		ProgressIndex: a.progress,
		ProgressTotal: total,
		Feedback:      FeedbackNone,
		Mistakes:      a.Mistakes(),
		Stars:         a.stars,
	}
	if total > 0 {
		v.ProgressPercent = a.progress * 100 / total
	}
	if a.failReason != nil {
		v.FailReason = a.failReason.Error()
	}
	if !a.state.Over() && a.phase != nil {
		v.Phase = a.phase.kind()
		a.phase.render(&v)
	}
	return v
}
