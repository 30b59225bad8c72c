package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalobadob/pixelwords/internal/progress"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestSQL(t *testing.T) *SQLStore {
	t.Helper()
	db, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return NewSQLStore(db)
}

// stores runs fn against every implementation.
func stores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, openTestSQL(t)) })
}

func TestGetUserNotFound(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		if _, err := s.GetUser(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u := progress.NewUser("ana", t0)
		progress.RecordCompletion(u, "w1-s1", 3, []string{"w1-s2"}, t0.Add(time.Minute))
		progress.RecordMistake(u, "w1-03", "CONSOLIDATION", t0)
		if err := progress.SelectHero(u, "h2"); err != nil {
			t.Fatal(err)
		}
		if err := s.SaveUser(ctx, u); err != nil {
			t.Fatalf("SaveUser: %v", err)
		}

		got, err := s.GetUser(ctx, "ana")
		if err != nil {
			t.Fatalf("GetUser: %v", err)
		}
		if got.HeroID != "h2" || progress.Stars(got, "w1-s1") != 3 {
			t.Fatalf("user = %+v", got)
		}
		if !got.UnlockedLevelIDs.Has("w1-s2") || !got.UnlockedLevelIDs.Has("w1-s1") {
			t.Fatalf("unlocks = %v", got.UnlockedList())
		}
		if len(got.Mistakes) != 1 || got.Mistakes[0].Phase != "CONSOLIDATION" || !got.Mistakes[0].Timestamp.Equal(t0) {
			t.Fatalf("mistakes = %+v", got.Mistakes)
		}
		if !got.LastActivity.Equal(t0.Add(time.Minute)) {
			t.Fatalf("last activity = %v", got.LastActivity)
		}
	})
}

func TestSaveNeverLowersStars(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u := progress.NewUser("ana", t0)
		progress.RecordCompletion(u, "w1-s1", 2, []string{"w1-s2"}, t0)
		if err := s.SaveUser(ctx, u); err != nil {
			t.Fatal(err)
		}

		// A stale record with fewer stars and fewer unlocks.
		stale := progress.NewUser("ana", t0)
		progress.RecordCompletion(stale, "w1-s1", 1, nil, t0)
		if err := s.SaveUser(ctx, stale); err != nil {
			t.Fatal(err)
		}

		got, err := s.GetUser(ctx, "ana")
		if err != nil {
			t.Fatal(err)
		}
		if progress.Stars(got, "w1-s1") != 2 {
			t.Fatalf("stars = %d, want 2", progress.Stars(got, "w1-s1"))
		}
		if !got.UnlockedLevelIDs.Has("w1-s2") {
			t.Fatal("unlock lost")
		}
	})
}

func TestMistakeLogAppends(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u := progress.NewUser("ana", t0)
		progress.RecordMistake(u, "w1-01", "RECOGNITION", t0)
		if err := s.SaveUser(ctx, u); err != nil {
			t.Fatal(err)
		}
		progress.RecordMistake(u, "w1-02", "APPLICATION", t0.Add(time.Second))
		if err := s.SaveUser(ctx, u); err != nil {
			t.Fatal(err)
		}
		// Saving again is a no-op for the log.
		if err := s.SaveUser(ctx, u); err != nil {
			t.Fatal(err)
		}
		got, _ := s.GetUser(ctx, "ana")
		if len(got.Mistakes) != 2 || got.Mistakes[1].WordID != "w1-02" {
			t.Fatalf("mistakes = %+v", got.Mistakes)
		}
	})
}

func TestListUsers(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, id := range []string{"cy", "ana", "bo"} {
			if err := s.SaveUser(ctx, progress.NewUser(id, t0)); err != nil {
				t.Fatal(err)
			}
		}
		users, err := s.ListUsers(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(users) != 3 || users[0].UserID != "ana" || users[2].UserID != "cy" {
			t.Fatalf("users = %v", users)
		}
	})
}

func TestMemoryReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	u := progress.NewUser("ana", t0)
	_ = s.SaveUser(ctx, u)
	progress.RecordCompletion(u, "w1-s1", 3, nil, t0)

	got, _ := s.GetUser(ctx, "ana")
	if progress.Stars(got, "w1-s1") != 0 {
		t.Fatal("store aliased the caller's record")
	}
	progress.RecordCompletion(got, "w1-s1", 3, nil, t0)
	again, _ := s.GetUser(ctx, "ana")
	if progress.Stars(again, "w1-s1") != 0 {
		t.Fatal("store aliased a returned record")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open("sqlite3", filepath.Join(t.TempDir(), "nested", "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("Migrate #%d: %v", i+1, err)
		}
	}
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM _migrations`); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("recorded migrations = %d", n)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil {
		t.Fatal("expected error")
	}
}
