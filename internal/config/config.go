// internal/config/config.go
//
// Tunables for the level quiz and the server process.
// Responsibilities:
//   - Game: the named gameplay constants (timer budgets, block size,
//     option counts, mistake thresholds, feedback delays).
//   - Server: process settings (port, DB driver/DSN, JWT, content file,
//     sweeper cadence).
//   - FromEnv overlays environment variables on top of the defaults.
//
// Environment variables (all optional):
//   RECOGNITION_TIME_LIMIT, CONSOLIDATION_TIME_LIMIT, APPLICATION_TIME_LIMIT,
//   WORDS_PER_STAGE, MC_OPTION_COUNT, MAX_APPLICATION_MISTAKES,
//   CONSOLIDATION_HINT_THRESHOLD, MAX_STAGES_PER_WORLD,
//   PORT, DB_DRIVER, DB_DSN, JWT_SECRET, JWT_EXPIRES_DAYS, COOKIE_NAME,
//   NODE_ENV, CLIENT_ORIGIN, CONTENT_FILE, SWEEP_INTERVAL_MINUTES, ATTEMPT_IDLE_MINUTES.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robalobadob/pixelwords/internal/quiz"
)

// Game holds the gameplay constants shared by every level attempt.
type Game struct {
	RecognitionTimeLimitSeconds   int
	ConsolidationTimeLimitSeconds int
	ApplicationTimeLimitSeconds   int
	WordsPerStage                 int
	MCOptionCount                 int
	MaxMistakesPerApplicationItem int
	ConsolidationHintThreshold    int
	MaxStagesPerWorld             int

	CorrectDelay      time.Duration // show "correct" before advancing
	WrongDelay        time.Duration // recognition wrong-feedback reset
	MistakeDelay      time.Duration // consolidation/application wrong feedback
	AudioPromptDelay  time.Duration // audio-only prompt plays after entering the item
	HighlightDuration time.Duration // flash-reveal highlight
	AudioModeChance   float64       // probability a recognition item is audio-only
	TileDistractors   int           // filler tiles added to each sentence bag
	SpeechLanguage    string
}

// MaxMCOptionCount is the largest option count every pool can fill: the
// generic fallbacks minus a possible clash with the correct meaning, plus
// the correct meaning itself.
var MaxMCOptionCount = len(quiz.GenericDistractors)

// Default returns the stock gameplay constants.
func Default() Game {
	return Game{
		RecognitionTimeLimitSeconds:   10,
		ConsolidationTimeLimitSeconds: 180,
		ApplicationTimeLimitSeconds:   300,
		WordsPerStage:                 8,
		MCOptionCount:                 4,
		MaxMistakesPerApplicationItem: 3,
		ConsolidationHintThreshold:    2,
		MaxStagesPerWorld:             4,

		CorrectDelay:      800 * time.Millisecond,
		WrongDelay:        800 * time.Millisecond,
		MistakeDelay:      600 * time.Millisecond,
		AudioPromptDelay:  300 * time.Millisecond,
		HighlightDuration: 2500 * time.Millisecond,
		AudioModeChance:   0.4,
		TileDistractors:   3,
		SpeechLanguage:    "en-US",
	}
}

// Validate rejects limits that would make a level unplayable.
func (g Game) Validate() error {
	checks := []struct {
		name string
		v    int
	}{
		{"RecognitionTimeLimitSeconds", g.RecognitionTimeLimitSeconds},
		{"ConsolidationTimeLimitSeconds", g.ConsolidationTimeLimitSeconds},
		{"ApplicationTimeLimitSeconds", g.ApplicationTimeLimitSeconds},
		{"WordsPerStage", g.WordsPerStage},
		{"MaxMistakesPerApplicationItem", g.MaxMistakesPerApplicationItem},
		{"ConsolidationHintThreshold", g.ConsolidationHintThreshold},
		{"MaxStagesPerWorld", g.MaxStagesPerWorld},
	}
	for _, c := range checks {
		if c.v <= 0 {
			return fmt.Errorf("config: %s must be positive, got %d", c.name, c.v)
		}
	}
	if g.MCOptionCount < 2 {
		return errors.New("config: MCOptionCount must be at least 2")
	}
	if g.MCOptionCount > MaxMCOptionCount {
		return fmt.Errorf("config: MCOptionCount must be at most %d, got %d", MaxMCOptionCount, g.MCOptionCount)
	}
	if g.AudioModeChance < 0 || g.AudioModeChance > 1 {
		return errors.New("config: AudioModeChance must be within [0,1]")
	}
	return nil
}

// Server groups process-level settings.
type Server struct {
	Port           string
	DBDriver       string // sqlite3 | postgres | memory
	DBDSN          string
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	CookieSecure   bool // Secure + SameSite=None cookies (NODE_ENV=production)
	ClientOrigin   string
	ContentFile    string
	SweepInterval  time.Duration
	AttemptIdle    time.Duration
}

// FromEnv builds both configs from the environment, falling back to defaults.
func FromEnv() (Game, Server, error) {
	g := Default()
	g.RecognitionTimeLimitSeconds = envInt("RECOGNITION_TIME_LIMIT", g.RecognitionTimeLimitSeconds)
	g.ConsolidationTimeLimitSeconds = envInt("CONSOLIDATION_TIME_LIMIT", g.ConsolidationTimeLimitSeconds)
	g.ApplicationTimeLimitSeconds = envInt("APPLICATION_TIME_LIMIT", g.ApplicationTimeLimitSeconds)
	g.WordsPerStage = envInt("WORDS_PER_STAGE", g.WordsPerStage)
	g.MCOptionCount = envInt("MC_OPTION_COUNT", g.MCOptionCount)
	g.MaxMistakesPerApplicationItem = envInt("MAX_APPLICATION_MISTAKES", g.MaxMistakesPerApplicationItem)
	g.ConsolidationHintThreshold = envInt("CONSOLIDATION_HINT_THRESHOLD", g.ConsolidationHintThreshold)
	g.MaxStagesPerWorld = envInt("MAX_STAGES_PER_WORLD", g.MaxStagesPerWorld)
	if err := g.Validate(); err != nil {
		return Game{}, Server{}, err
	}

	s := Server{
		Port:           GetEnv("PORT", "5175"),
		DBDriver:       GetEnv("DB_DRIVER", "sqlite3"),
		DBDSN:          GetEnv("DB_DSN", "./data/pixelwords.db"),
		JWTSecret:      GetEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays: envInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     GetEnv("COOKIE_NAME", "pixelwords_token"),
		CookieSecure:   os.Getenv("NODE_ENV") == "production",
		ClientOrigin:   GetEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		ContentFile:    os.Getenv("CONTENT_FILE"),
		SweepInterval:  time.Duration(envInt("SWEEP_INTERVAL_MINUTES", 5)) * time.Minute,
		AttemptIdle:    time.Duration(envInt("ATTEMPT_IDLE_MINUTES", 30)) * time.Minute,
	}
	return g, s, nil
}

// GetEnv returns the value of k or def if unset/empty.
func GetEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envInt parses k as an int; unparsable values fall back to def.
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
