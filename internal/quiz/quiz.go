// internal/quiz/quiz.go
//
// Item builders shared by the phase engines.
//
// Responsibilities:
//   - Multiple-choice options for recognition (distinct meanings, fixed count).
//   - Spelling blanks for consolidation (interior letters only, 40% cap).
//   - Sentence tokens and shuffled tile bags for application.
//
// Every function takes the caller's *rand.Rand so tests can fix a seed.

package quiz

import (
	"math/rand"
	"sort"
	"strings"
	"unicode"

	"github.com/zyedidia/generic/mapset"

	"github.com/robalobadob/pixelwords/internal/content"
)

// BlankRatio caps the share of a word's letters that may be blanked.
const BlankRatio = 0.4

// GenericDistractors pads multiple choice when the pool has too few distinct meanings.
var GenericDistractors = []string{
	"书", "水", "猫", "朋友", "学校", "红色", "跑", "大", "小", "快乐", "今天", "房子",
}

// FillerWords are the closed-class words mixed into a sentence tile bag.
var FillerWords = []string{"is", "the", "a", "not", "very", "too", "it", "they", "we", "he", "she"}

// ---- recognition ----

// MultipleChoice returns optionCount unique native-language options with
// correct.Native present exactly once, in random order.
// Distractors are drawn from the distinct meanings in pool, then from
// GenericDistractors when the pool runs short.
func MultipleChoice(rng *rand.Rand, correct content.Word, pool []content.Word, optionCount int) []string {
	if optionCount < 1 {
		optionCount = 1
	}
	used := mapset.New[string]()
	used.Put(correct.Native)

	var candidates []string
	for _, w := range pool {
		if used.Has(w.Native) || w.Native == "" {
			continue
		}
		used.Put(w.Native)
		candidates = append(candidates, w.Native)
	}
	candidates = content.Shuffle(rng, candidates)

	need := optionCount - 1
	if len(candidates) > need {
		candidates = candidates[:need]
	}
	if len(candidates) < need {
		for _, g := range content.Shuffle(rng, GenericDistractors) {
			if len(candidates) == need {
				break
			}
			if used.Has(g) {
				continue
			}
			used.Put(g)
			candidates = append(candidates, g)
		}
	}

	options := append(candidates, correct.Native)
	return content.Shuffle(rng, options)
}

// ---- consolidation ----

// SpellingBlanks picks the positions (rune indices) to hide in english.
// First and last characters are never blanked, nor are non-letters.
// The count is max(1, floor(0.4*L)) limited by the available interior
// letters, so a word shorter than 3 gets no blanks.
func SpellingBlanks(rng *rand.Rand, english string) []int {
	letters := []rune(english)
	n := len(letters)
	if n < 3 {
		return nil
	}
	var interior []int
	for i := 1; i < n-1; i++ {
		if unicode.IsLetter(letters[i]) {
			interior = append(interior, i)
		}
	}
	count := int(float64(n) * BlankRatio)
	if count < 1 {
		count = 1
	}
	if count > len(interior) {
		count = len(interior)
	}
	picked := content.Shuffle(rng, interior)[:count]
	sort.Ints(picked)
	return picked
}

// CanSpell reports whether english has at least one blankable letter.
func CanSpell(english string) bool {
	letters := []rune(english)
	for i := 1; i < len(letters)-1; i++ {
		if unicode.IsLetter(letters[i]) {
			return true
		}
	}
	return false
}

// ---- application ----

var punctuation = strings.NewReplacer(".", "", "!", "", "?", "", ",", "")

// SentenceTokens strips sentence punctuation and splits on whitespace.
func SentenceTokens(example string) []string {
	return strings.Fields(punctuation.Replace(example))
}

// TileBag shuffles tokens together with up to count fillers.
// A filler equal to any token (ignoring case) is never added.
func TileBag(rng *rand.Rand, tokens, fillers []string, count int) []string {
	present := mapset.New[string]()
	for _, t := range tokens {
		present.Put(strings.ToLower(t))
	}
	var extra []string
	for _, f := range content.Shuffle(rng, fillers) {
		if len(extra) >= count {
			break
		}
		k := strings.ToLower(f)
		if present.Has(k) {
			continue
		}
		present.Put(k)
		extra = append(extra, f)
	}
	bag := append(append([]string(nil), tokens...), extra...)
	return content.Shuffle(rng, bag)
}

// SameSentence compares two token sequences space-joined, ignoring case.
func SameSentence(got, want []string) bool {
	return strings.EqualFold(strings.Join(got, " "), strings.Join(want, " "))
}
