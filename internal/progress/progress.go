// internal/progress/progress.go
//
// Persistent player record and the rules that mutate it.
// Responsibilities:
//   - User: unlocked levels, best stars per level, mistake log, activity time.
//   - ComputeUnlocks: next stage in the world, else stage 1 of the next world.
//   - RecordCompletion / RecordMistake: the only ledger mutations.
//   - Leaderboard: read-only projection sorted by total stars.
//
// Invariants:
//   - Stars per level never decrease (max of old and new).
//   - The unlocked set only grows; stage 1 of every world is always open.
package progress

import (
	"sort"
	"time"

	"github.com/zyedidia/generic/mapset"

	"github.com/robalobadob/pixelwords/internal/content"
)

// MaxStars is the best rating a level can earn.
const MaxStars = 3

// FirstLevelID is unlocked for every new user.
var FirstLevelID = content.LevelID(1, 1)

// Mistake is one entry of the mistake log.
type Mistake struct {
	WordID    string    `json:"wordId"`
	Phase     string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// User is the ledger record of one player.
type User struct {
	UserID           string
	UnlockedLevelIDs mapset.Set[string]
	StarsByLevelID   map[string]int
	Mistakes         []Mistake
	LastActivity     time.Time
	HeroID           string
}

// NewUser creates a first-login record with the first level unlocked.
func NewUser(id string, now time.Time) *User {
	u := &User{
		UserID:           id,
		UnlockedLevelIDs: mapset.New[string](),
		StarsByLevelID:   make(map[string]int),
		LastActivity:     now,
	}
	u.UnlockedLevelIDs.Put(FirstLevelID)
	return u
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	c := &User{
		UserID:           u.UserID,
		UnlockedLevelIDs: mapset.New[string](),
		StarsByLevelID:   make(map[string]int, len(u.StarsByLevelID)),
		Mistakes:         append([]Mistake(nil), u.Mistakes...),
		LastActivity:     u.LastActivity,
		HeroID:           u.HeroID,
	}
	if u.UnlockedLevelIDs.Size() > 0 {
		u.UnlockedLevelIDs.Each(func(id string) { c.UnlockedLevelIDs.Put(id) })
	}
	for k, v := range u.StarsByLevelID {
		c.StarsByLevelID[k] = v
	}
	return c
}

// ensure initializes nil collections on records built by hand or decoded.
func (u *User) ensure() {
	// A zero Set has a nil inner map: Size is safe, Put is not.
	if u.UnlockedLevelIDs.Size() == 0 {
		u.UnlockedLevelIDs = mapset.New[string]()
	}
	if u.StarsByLevelID == nil {
		u.StarsByLevelID = make(map[string]int)
	}
}

// UnlockedList returns the unlocked level ids sorted.
func (u *User) UnlockedList() []string {
	u.ensure()
	out := make([]string, 0, u.UnlockedLevelIDs.Size())
	u.UnlockedLevelIDs.Each(func(id string) { out = append(out, id) })
	sort.Strings(out)
	return out
}

// ComputeUnlocks returns the level opened by clearing world/stage:
// the next stage in the same world, or stage 1 of the next world if
// hasWorld reports it exists. ok is false after the last level of the last world.
func ComputeUnlocks(worldID, stageNum, maxStages int, hasWorld func(int) bool) (next string, ok bool) {
	if stageNum+1 <= maxStages {
		return content.LevelID(worldID, stageNum+1), true
	}
	if hasWorld != nil && hasWorld(worldID+1) {
		return content.LevelID(worldID+1, 1), true
	}
	return "", false
}

// RecordCompletion keeps the best star count for levelID, adds the unlocked
// ids and stamps the activity time. Stars are clamped to 0..MaxStars.
func RecordCompletion(u *User, levelID string, stars int, unlocked []string, now time.Time) {
	u.ensure()
	if stars < 0 {
		stars = 0
	}
	if stars > MaxStars {
		stars = MaxStars
	}
	if stars > u.StarsByLevelID[levelID] {
		u.StarsByLevelID[levelID] = stars
	} else if _, seen := u.StarsByLevelID[levelID]; !seen {
		u.StarsByLevelID[levelID] = stars
	}
	for _, id := range unlocked {
		u.UnlockedLevelIDs.Put(id)
	}
	u.LastActivity = now
}

// RecordMistake appends to the mistake log. Stars and unlocks are untouched.
func RecordMistake(u *User, wordID, phase string, now time.Time) {
	u.Mistakes = append(u.Mistakes, Mistake{WordID: wordID, Phase: phase, Timestamp: now})
}

// Touch refreshes the activity time (manual save).
func Touch(u *User, now time.Time) { u.LastActivity = now }

// IsUnlocked reports whether the player may start levelID.
// Stage 1 of any world is always open.
func IsUnlocked(u *User, levelID string) bool {
	if _, stage, err := content.ParseLevelID(levelID); err == nil && stage == 1 {
		return true
	}
	u.ensure()
	return u.UnlockedLevelIDs.Has(levelID)
}

// Stars returns the best rating for levelID.
func Stars(u *User, levelID string) int { return u.StarsByLevelID[levelID] }

// TotalStars sums the best ratings over all levels.
func TotalStars(u *User) int {
	n := 0
	for _, s := range u.StarsByLevelID {
		n += s
	}
	return n
}

// ---- leaderboard ----

// LeaderboardEntry is a derived row; it is never stored.
type LeaderboardEntry struct {
	UserID       string    `json:"userId"`
	TotalStars   int       `json:"totalStars"`
	LastActivity time.Time `json:"lastActivity"`
	HeroID       string    `json:"heroId,omitempty"`
}

// Leaderboard orders users by total stars, then most recent activity.
// User id breaks remaining ties so the order is stable.
func Leaderboard(users []*User) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(users))
	for _, u := range users {
		out = append(out, LeaderboardEntry{
			UserID:       u.UserID,
			TotalStars:   TotalStars(u),
			LastActivity: u.LastActivity,
			HeroID:       u.HeroID,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalStars != b.TotalStars {
			return a.TotalStars > b.TotalStars
		}
		if !a.LastActivity.Equal(b.LastActivity) {
			return a.LastActivity.After(b.LastActivity)
		}
		return a.UserID < b.UserID
	})
	return out
}
