// internal/content/types.go
//
// Static content model: words, worlds and the levels cut from them.
// Content is immutable once loaded; nothing in the game mutates it.

package content

import (
	"errors"
	"fmt"
	"strings"
)

// ErrContentUnavailable is returned when a world/stage slice has no words.
// A level must not start in that case.
var ErrContentUnavailable = errors.New("content unavailable")

// PartOfSpeech is a word class. Values are the short keys the UI shows
// ("n.", "v.", ...) without the trailing dot.
type PartOfSpeech string

const (
	Noun        PartOfSpeech = "n"
	Verb        PartOfSpeech = "v"
	Adjective   PartOfSpeech = "adj"
	Adverb      PartOfSpeech = "adv"
	Preposition PartOfSpeech = "prep"
	Conjunction PartOfSpeech = "conj"
	Pronoun     PartOfSpeech = "pron"
	Article     PartOfSpeech = "art"
)

// PartsOfSpeech is the fixed classification menu, in display order.
var PartsOfSpeech = []PartOfSpeech{
	Noun, Verb, Adjective, Adverb, Preposition, Conjunction, Pronoun, Article,
}

var posAliases = map[string]PartOfSpeech{
	"n": Noun, "noun": Noun,
	"v": Verb, "verb": Verb,
	"adj": Adjective, "adjective": Adjective,
	"adv": Adverb, "adverb": Adverb,
	"prep": Preposition, "preposition": Preposition,
	"conj": Conjunction, "conjunction": Conjunction,
	"pron": Pronoun, "pronoun": Pronoun,
	"art": Article, "article": Article,
}

// ParsePartOfSpeech accepts short keys, full names and dotted labels ("adj.").
func ParsePartOfSpeech(s string) (PartOfSpeech, error) {
	k := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
	if p, ok := posAliases[k]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown part of speech %q", s)
}

// Word is one vocabulary entry. ID is unique within its world.
type Word struct {
	ID            string       `json:"id"`
	English       string       `json:"english"`
	Native        string       `json:"native"`
	POS           PartOfSpeech `json:"pos"`
	Example       string       `json:"example"`
	ExampleNative string       `json:"exampleNative,omitempty"`
	Phonetic      string       `json:"phonetic,omitempty"`
}

// World is a map region; its word list is sliced into stages.
type World struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Level is one stage of a world with its fixed word block.
// Levels are not persisted; they are recomputed whenever a stage starts.
type Level struct {
	ID       string `json:"id"`
	WorldID  int    `json:"worldId"`
	StageNum int    `json:"stageNum"`
	Words    []Word `json:"words"`
}

// LevelID formats the canonical "w<world>-s<stage>" identifier.
func LevelID(worldID, stageNum int) string {
	return fmt.Sprintf("w%d-s%d", worldID, stageNum)
}

// ParseLevelID is the inverse of LevelID.
func ParseLevelID(id string) (worldID, stageNum int, err error) {
	if _, err = fmt.Sscanf(id, "w%d-s%d", &worldID, &stageNum); err != nil {
		return 0, 0, fmt.Errorf("bad level id %q: %w", id, err)
	}
	if LevelID(worldID, stageNum) != id || worldID <= 0 || stageNum <= 0 {
		return 0, 0, fmt.Errorf("bad level id %q", id)
	}
	return worldID, stageNum, nil
}
