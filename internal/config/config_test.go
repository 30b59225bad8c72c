package config

import (
	"math/rand"
	"testing"
	"time"

	"github.com/robalobadob/pixelwords/internal/content"
	"github.com/robalobadob/pixelwords/internal/quiz"
)

func TestDefaultMatchesNamedConstants(t *testing.T) {
	g := Default()
	want := map[string]int{
		"recognition":   10,
		"consolidation": 180,
		"application":   300,
		"words":         8,
		"options":       4,
		"appMistakes":   3,
		"hint":          2,
		"stages":        4,
	}
	got := map[string]int{
		"recognition":   g.RecognitionTimeLimitSeconds,
		"consolidation": g.ConsolidationTimeLimitSeconds,
		"application":   g.ApplicationTimeLimitSeconds,
		"words":         g.WordsPerStage,
		"options":       g.MCOptionCount,
		"appMistakes":   g.MaxMistakesPerApplicationItem,
		"hint":          g.ConsolidationHintThreshold,
		"stages":        g.MaxStagesPerWorld,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: got %d, want %d", k, got[k], v)
		}
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsNonPositive(t *testing.T) {
	g := Default()
	g.ApplicationTimeLimitSeconds = 0
	if err := g.Validate(); err == nil {
		t.Fatal("expected error for zero application limit")
	}
	g = Default()
	g.MCOptionCount = 1
	if err := g.Validate(); err == nil {
		t.Fatal("expected error for single option")
	}
}

func TestOptionCountFillableByAnyPool(t *testing.T) {
	g := Default()
	g.MCOptionCount = MaxMCOptionCount + 1
	if err := g.Validate(); err == nil {
		t.Fatalf("MCOptionCount %d accepted", g.MCOptionCount)
	}
	g.MCOptionCount = MaxMCOptionCount
	if err := g.Validate(); err != nil {
		t.Fatalf("MCOptionCount %d rejected: %v", g.MCOptionCount, err)
	}

	// Worst case: no pool and a correct meaning that is also a generic fallback.
	correct := content.Word{ID: "x", English: "run", Native: quiz.GenericDistractors[0]}
	for seed := int64(0); seed < 20; seed++ {
		opts := quiz.MultipleChoice(rand.New(rand.NewSource(seed)), correct, nil, MaxMCOptionCount)
		seen := map[string]bool{}
		for _, o := range opts {
			seen[o] = true
		}
		if len(opts) != MaxMCOptionCount || len(seen) != MaxMCOptionCount || !seen[correct.Native] {
			t.Fatalf("seed %d: options = %v", seed, opts)
		}
	}
}

func TestFromEnvOverlays(t *testing.T) {
	t.Setenv("RECOGNITION_TIME_LIMIT", "15")
	t.Setenv("WORDS_PER_STAGE", "oops")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("SWEEP_INTERVAL_MINUTES", "2")

	g, s, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if g.RecognitionTimeLimitSeconds != 15 {
		t.Errorf("recognition limit = %d, want 15", g.RecognitionTimeLimitSeconds)
	}
	if g.WordsPerStage != 8 {
		t.Errorf("unparsable value should keep default, got %d", g.WordsPerStage)
	}
	if s.DBDriver != "memory" {
		t.Errorf("driver = %q", s.DBDriver)
	}
	if s.SweepInterval != 2*time.Minute {
		t.Errorf("sweep interval = %v", s.SweepInterval)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	t.Setenv("MAX_STAGES_PER_WORLD", "-1")
	if _, _, err := FromEnv(); err == nil {
		t.Fatal("expected validation error")
	}
}
