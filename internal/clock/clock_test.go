package clock

import (
	"reflect"
	"testing"
	"time"
)

func TestAfterFiresInOrder(t *testing.T) {
	s := NewScheduler()
	var got []string
	s.After(300*time.Millisecond, func() { got = append(got, "b") })
	s.After(100*time.Millisecond, func() { got = append(got, "a") })
	s.After(300*time.Millisecond, func() { got = append(got, "c") })

	s.Advance(200 * time.Millisecond)
	if !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("after 200ms: %v", got)
	}
	s.Advance(100 * time.Millisecond)
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("after 300ms: %v", got)
	}
	if s.Now() != 300*time.Millisecond {
		t.Fatalf("now = %v", s.Now())
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d", s.Pending())
	}
}

func TestStopCancels(t *testing.T) {
	s := NewScheduler()
	fired := false
	tm := s.After(time.Second, func() { fired = true })
	if !tm.Stop() {
		t.Fatal("Stop on pending timer returned false")
	}
	if tm.Stop() {
		t.Fatal("second Stop returned true")
	}
	s.Advance(2 * time.Second)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestEveryAndNestedScheduling(t *testing.T) {
	s := NewScheduler()
	ticks := 0
	var tk *Timer
	tk = s.Every(time.Second, func() {
		ticks++
		if ticks == 3 {
			tk.Stop()
		}
	})
	nested := false
	s.After(500*time.Millisecond, func() {
		s.After(100*time.Millisecond, func() { nested = true })
	})
	s.Advance(10 * time.Second)
	if ticks != 3 {
		t.Fatalf("ticks = %d", ticks)
	}
	if !nested {
		t.Fatal("timer scheduled inside callback did not fire in the same Advance")
	}
}

func TestStopAll(t *testing.T) {
	s := NewScheduler()
	n := 0
	a := s.Every(time.Second, func() { n++ })
	s.After(time.Second, func() { n++ })
	s.StopAll()
	if s.Pending() != 0 || a.Active() {
		t.Fatal("timers still live after StopAll")
	}
	s.Advance(5 * time.Second)
	if n != 0 {
		t.Fatalf("callbacks ran %d times", n)
	}
}

func TestStopAllFromCallback(t *testing.T) {
	s := NewScheduler()
	later := false
	s.After(time.Second, func() { s.StopAll() })
	s.After(2*time.Second, func() { later = true })
	s.Advance(3 * time.Second)
	if later {
		t.Fatal("timer fired after StopAll inside callback")
	}
}

func TestCountdownExpires(t *testing.T) {
	s := NewScheduler()
	c := NewCountdown(s)
	var seen []int
	expired := 0
	c.Start(3, func(r int) { seen = append(seen, r) }, func() { expired++ })

	s.Advance(2 * time.Second)
	if c.Remaining() != 1 || expired != 0 || !c.Active() {
		t.Fatalf("remaining=%d expired=%d active=%v", c.Remaining(), expired, c.Active())
	}
	s.Advance(5 * time.Second)
	if expired != 1 {
		t.Fatalf("expired %d times", expired)
	}
	if !reflect.DeepEqual(seen, []int{2, 1, 0}) {
		t.Fatalf("ticks = %v", seen)
	}
	if c.Active() || s.Pending() != 0 {
		t.Fatal("countdown still ticking after expiry")
	}
}

func TestCountdownRestartKeepsOneTick(t *testing.T) {
	s := NewScheduler()
	c := NewCountdown(s)
	expired := 0
	c.Start(10, nil, func() { expired++ })
	s.Advance(4 * time.Second)
	c.Start(10, nil, func() { expired++ })
	if s.Pending() != 1 {
		t.Fatalf("pending = %d after restart", s.Pending())
	}
	s.Advance(9 * time.Second)
	if expired != 0 || c.Remaining() != 1 {
		t.Fatalf("expired=%d remaining=%d", expired, c.Remaining())
	}
	s.Advance(time.Second)
	if expired != 1 {
		t.Fatalf("expired = %d", expired)
	}
}

func TestCountdownStop(t *testing.T) {
	s := NewScheduler()
	c := NewCountdown(s)
	expired := false
	c.Start(2, nil, func() { expired = true })
	s.Advance(time.Second)
	c.Stop()
	s.Advance(5 * time.Second)
	if expired || c.Remaining() != 1 {
		t.Fatalf("expired=%v remaining=%d", expired, c.Remaining())
	}
}
