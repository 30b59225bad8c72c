package progress

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func twoWorlds(id int) bool { return id >= 1 && id <= 2 }

func TestComputeUnlocks(t *testing.T) {
	cases := []struct {
		world, stage int
		want         string
		ok           bool
	}{
		{1, 1, "w1-s2", true},
		{1, 3, "w1-s4", true},
		{1, 4, "w2-s1", true}, // last stage of world 1 opens the next world
		{2, 4, "", false},     // last level of the last world
	}
	for _, tc := range cases {
		got, ok := ComputeUnlocks(tc.world, tc.stage, 4, twoWorlds)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ComputeUnlocks(%d,%d) = %q,%v; want %q,%v", tc.world, tc.stage, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNewUserSeedsFirstLevel(t *testing.T) {
	u := NewUser("ana", t0)
	if !u.UnlockedLevelIDs.Has("w1-s1") || u.UnlockedLevelIDs.Size() != 1 {
		t.Fatalf("unlocked = %v", u.UnlockedList())
	}
	if !u.LastActivity.Equal(t0) {
		t.Fatalf("last activity = %v", u.LastActivity)
	}
}

func TestRecordCompletionKeepsMaxStars(t *testing.T) {
	u := NewUser("ana", t0)
	RecordCompletion(u, "w1-s1", 2, []string{"w1-s2"}, t0)
	RecordCompletion(u, "w1-s1", 1, nil, t0.Add(time.Minute))
	RecordCompletion(u, "w1-s1", 1, nil, t0.Add(2*time.Minute))
	if got := Stars(u, "w1-s1"); got != 2 {
		t.Fatalf("stars = %d, want 2", got)
	}
	if !u.LastActivity.Equal(t0.Add(2 * time.Minute)) {
		t.Fatalf("last activity not updated: %v", u.LastActivity)
	}
	RecordCompletion(u, "w1-s1", 9, nil, t0)
	if got := Stars(u, "w1-s1"); got != MaxStars {
		t.Fatalf("stars not clamped: %d", got)
	}
}

func TestUnlocksOnlyGrow(t *testing.T) {
	u := NewUser("ana", t0)
	seq := [][]string{{"w1-s2"}, nil, {"w1-s2"}, {"w1-s3"}, {}}
	prev := 1
	for _, ids := range seq {
		RecordCompletion(u, "w1-s1", 1, ids, t0)
		n := u.UnlockedLevelIDs.Size()
		if n < prev {
			t.Fatalf("unlocked set shrank: %d -> %d", prev, n)
		}
		prev = n
	}
	want := []string{"w1-s1", "w1-s2", "w1-s3"}
	got := u.UnlockedList()
	if len(got) != len(want) {
		t.Fatalf("unlocked = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unlocked = %v", got)
		}
	}
}

func TestIsUnlocked(t *testing.T) {
	u := &User{UserID: "empty"}
	if !IsUnlocked(u, "w1-s1") || !IsUnlocked(u, "w3-s1") {
		t.Fatal("stage 1 must always be open")
	}
	if IsUnlocked(u, "w1-s2") {
		t.Fatal("w1-s2 open without unlock")
	}
	RecordCompletion(u, "w1-s1", 3, []string{"w1-s2"}, t0)
	if !IsUnlocked(u, "w1-s2") {
		t.Fatal("w1-s2 not open after unlock")
	}
}

func TestRecordMistakeLeavesStars(t *testing.T) {
	u := NewUser("ana", t0)
	RecordCompletion(u, "w1-s1", 3, nil, t0)
	RecordMistake(u, "w1-01", "RECOGNITION", t0)
	RecordMistake(u, "w1-02", "APPLICATION", t0)
	if len(u.Mistakes) != 2 || u.Mistakes[1].WordID != "w1-02" {
		t.Fatalf("mistakes = %+v", u.Mistakes)
	}
	if Stars(u, "w1-s1") != 3 || u.UnlockedLevelIDs.Size() != 1 {
		t.Fatal("mistake changed stars or unlocks")
	}
}

func TestCloneIsDeep(t *testing.T) {
	u := NewUser("ana", t0)
	RecordCompletion(u, "w1-s1", 2, []string{"w1-s2"}, t0)
	RecordMistake(u, "w1-01", "RECOGNITION", t0)
	c := u.Clone()
	RecordCompletion(c, "w1-s2", 3, []string{"w1-s3"}, t0)
	RecordMistake(c, "w1-02", "RECOGNITION", t0)
	if u.UnlockedLevelIDs.Has("w1-s3") || Stars(u, "w1-s2") != 0 || len(u.Mistakes) != 1 {
		t.Fatal("clone shares state with original")
	}
}

func TestZeroValueUser(t *testing.T) {
	u := &User{UserID: "z"}
	c := u.Clone()
	if u.StarsByLevelID != nil || u.UnlockedLevelIDs.Size() != 0 {
		t.Fatal("Clone modified its source")
	}
	RecordCompletion(c, "w1-s1", 2, []string{"w1-s2"}, t0)
	RecordCompletion(u, "w1-s1", 2, []string{"w1-s2"}, t0)
	for _, rec := range []*User{u, c} {
		if got := rec.UnlockedList(); len(got) != 1 || got[0] != "w1-s2" {
			t.Fatalf("unlocked = %v", got)
		}
		if Stars(rec, "w1-s1") != 2 {
			t.Fatalf("stars = %d", Stars(rec, "w1-s1"))
		}
	}
	if !IsUnlocked(&User{}, "w1-s1") || IsUnlocked(&User{}, "w1-s2") {
		t.Fatal("IsUnlocked on an empty record")
	}
}

func TestLeaderboardOrder(t *testing.T) {
	a := NewUser("a", t0)
	RecordCompletion(a, "w1-s1", 2, nil, t0)
	b := NewUser("b", t0)
	RecordCompletion(b, "w1-s1", 3, nil, t0)
	RecordCompletion(b, "w1-s2", 1, nil, t0)
	c := NewUser("c", t0)
	RecordCompletion(c, "w1-s1", 2, nil, t0.Add(time.Hour))
	d := NewUser("d", t0)
	RecordCompletion(d, "w1-s1", 2, nil, t0)

	got := Leaderboard([]*User{a, b, c, d})
	order := ""
	for _, e := range got {
		order += e.UserID
	}
	if order != "bcad" {
		t.Fatalf("order = %s", order)
	}
	if got[0].TotalStars != 4 {
		t.Fatalf("total = %d", got[0].TotalStars)
	}
}

func TestSelectHero(t *testing.T) {
	u := NewUser("ana", t0)
	if err := SelectHero(u, "h3"); err != nil || u.HeroID != "h3" {
		t.Fatalf("SelectHero: %v, hero=%q", err, u.HeroID)
	}
	if err := SelectHero(u, "h9"); err == nil {
		t.Fatal("unknown hero accepted")
	}
	if u.HeroID != "h3" {
		t.Fatal("failed select changed hero")
	}
}
