// internal/content/pool.go
//
// Pool is the read-only content source: worlds in display order and the
// word list of each world. Level words are contiguous blocks of that list.

package content

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Pool maps world id to its ordered word list.
type Pool struct {
	worlds []World
	words  map[int][]Word
}

// NewPool validates and indexes content.
// World ids must be unique, word ids unique within a world, and every word
// needs English, native text and a known part of speech.
func NewPool(worlds []World, words map[int][]Word) (*Pool, error) {
	p := &Pool{words: make(map[int][]Word, len(worlds))}
	seenWorld := make(map[int]struct{}, len(worlds))
	for _, w := range worlds {
		if w.ID <= 0 {
			return nil, fmt.Errorf("world %q: id must be positive", w.Name)
		}
		if _, dup := seenWorld[w.ID]; dup {
			return nil, fmt.Errorf("world %d: duplicate id", w.ID)
		}
		seenWorld[w.ID] = struct{}{}

		list := append([]Word(nil), words[w.ID]...)
		seenWord := make(map[string]struct{}, len(list))
		for i, wd := range list {
			if wd.ID == "" || strings.TrimSpace(wd.English) == "" || strings.TrimSpace(wd.Native) == "" {
				return nil, fmt.Errorf("world %d word #%d: id, english and native are required", w.ID, i+1)
			}
			if _, dup := seenWord[wd.ID]; dup {
				return nil, fmt.Errorf("world %d: duplicate word id %q", w.ID, wd.ID)
			}
			seenWord[wd.ID] = struct{}{}
			pos, err := ParsePartOfSpeech(string(wd.POS))
			if err != nil {
				return nil, fmt.Errorf("world %d word %q: %w", w.ID, wd.ID, err)
			}
			list[i].POS = pos
		}
		p.worlds = append(p.worlds, w)
		p.words[w.ID] = list
	}
	sort.SliceStable(p.worlds, func(i, j int) bool {
		if p.worlds[i].Order != p.worlds[j].Order {
			return p.worlds[i].Order < p.worlds[j].Order
		}
		return p.worlds[i].ID < p.worlds[j].ID
	})
	return p, nil
}

// document is the JSON shape of a content file.
type document struct {
	Worlds []struct {
		World
		Words []Word `json:"words"`
	} `json:"worlds"`
}

// Decode parses a JSON content document into a Pool.
func Decode(data []byte) (*Pool, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	worlds := make([]World, 0, len(doc.Worlds))
	words := make(map[int][]Word, len(doc.Worlds))
	for _, w := range doc.Worlds {
		worlds = append(worlds, w.World)
		words[w.ID] = w.Words
	}
	return NewPool(worlds, words)
}

// Worlds returns the worlds in display order.
func (p *Pool) Worlds() []World { return append([]World(nil), p.worlds...) }

// World looks up a world by id.
func (p *Pool) World(id int) (World, bool) {
	for _, w := range p.worlds {
		if w.ID == id {
			return w, true
		}
	}
	return World{}, false
}

// HasWorld reports whether a world with this id exists.
func (p *Pool) HasWorld(id int) bool {
	_, ok := p.words[id]
	return ok
}

// WorldCount is the number of worlds.
func (p *Pool) WorldCount() int { return len(p.worlds) }

// Words returns a copy of the world's full word list (nil if unknown).
func (p *Pool) Words(worldID int) []Word {
	list, ok := p.words[worldID]
	if !ok {
		return nil
	}
	return append([]Word(nil), list...)
}

// SelectLevelWords slices words[(stage-1)*block : stage*block] from the world.
// The upper bound is clamped to the list; an empty result is ErrContentUnavailable.
func (p *Pool) SelectLevelWords(worldID, stageNum, blockSize int) ([]Word, error) {
	list := p.words[worldID]
	if stageNum < 1 || blockSize < 1 {
		return nil, fmt.Errorf("w%d-s%d: %w", worldID, stageNum, ErrContentUnavailable)
	}
	start := (stageNum - 1) * blockSize
	if start >= len(list) {
		return nil, fmt.Errorf("w%d-s%d: %w", worldID, stageNum, ErrContentUnavailable)
	}
	end := start + blockSize
	if end > len(list) {
		end = len(list)
	}
	return append([]Word(nil), list[start:end]...), nil
}

// Level builds the Level for a world/stage.
func (p *Pool) Level(worldID, stageNum, blockSize int) (Level, error) {
	words, err := p.SelectLevelWords(worldID, stageNum, blockSize)
	if err != nil {
		return Level{}, err
	}
	return Level{ID: LevelID(worldID, stageNum), WorldID: worldID, StageNum: stageNum, Words: words}, nil
}

// PhaseWordSet holds one independent ordering of the level words per phase.
type PhaseWordSet struct {
	Recognition   []Word
	Consolidation []Word
	Application   []Word
}

// NewPhaseWordSet shuffles the level words three times.
func NewPhaseWordSet(rng *rand.Rand, words []Word) PhaseWordSet {
	return PhaseWordSet{
		Recognition:   Shuffle(rng, words),
		Consolidation: Shuffle(rng, words),
		Application:   Shuffle(rng, words),
	}
}

// Shuffle returns a Fisher–Yates permutation of a copy of in.
// The input slice is never modified.
func Shuffle[T any](rng *rand.Rand, in []T) []T {
	out := append([]T(nil), in...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
