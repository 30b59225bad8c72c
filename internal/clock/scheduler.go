// internal/clock/scheduler.go
//
// Virtual-time event queue used by the game engines.
//
// Responsibilities:
//   - One-shot delays (After) and periodic ticks (Every), both cancelable.
//   - Deterministic firing order: due time first, then scheduling order.
//   - Time only moves through Advance, so tests drive it explicitly and the
//     session runner feeds it wall-clock deltas.
//
// A Scheduler is not safe for concurrent use; its owner serializes calls.

package clock

import (
	"time"

	"github.com/zyedidia/generic/heap"
	"github.com/zyedidia/generic/mapset"
)

// Timer is a handle to a scheduled callback.
type Timer struct {
	s      *Scheduler
	fn     func()
	period time.Duration // 0 for one-shot
	due    time.Duration
	seq    uint64
}

// Stop cancels the timer. It reports whether the timer was still pending.
func (t *Timer) Stop() bool {
	if t == nil || !t.s.live.Has(t) {
		return false
	}
	t.s.live.Remove(t)
	return true
}

// Active reports whether the timer will still fire.
func (t *Timer) Active() bool {
	return t != nil && t.s.live.Has(t)
}

type entry struct {
	due time.Duration
	seq uint64
	t   *Timer
}

// Scheduler orders timers on a virtual clock starting at zero.
type Scheduler struct {
	now  time.Duration
	seq  uint64
	q    *heap.Heap[entry]
	live mapset.Set[*Timer]
}

func entryLess(a, b entry) bool {
	if a.due != b.due {
		return a.due < b.due
	}
	return a.seq < b.seq
}

// NewScheduler returns an empty scheduler at virtual time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{
		q:    heap.New[entry](entryLess),
		live: mapset.New[*Timer](),
	}
}

// Now is the current virtual time.
func (s *Scheduler) Now() time.Duration { return s.now }

// Pending is the number of live timers.
func (s *Scheduler) Pending() int { return s.live.Size() }

// After runs fn once, d from now.
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	return s.add(d, 0, fn)
}

// Every runs fn each period, first at now+period.
func (s *Scheduler) Every(period time.Duration, fn func()) *Timer {
	if period <= 0 {
		period = time.Millisecond
	}
	return s.add(period, period, fn)
}

func (s *Scheduler) add(d, period time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	t := &Timer{s: s, fn: fn, period: period}
	s.live.Put(t)
	s.push(t, s.now+d)
	return t
}

func (s *Scheduler) push(t *Timer, due time.Duration) {
	s.seq++
	t.due, t.seq = due, s.seq
	s.q.Push(entry{due: due, seq: s.seq, t: t})
}

// Advance moves virtual time forward by d, firing every timer that comes
// due on the way. Callbacks may schedule or stop timers; newly scheduled
// timers that fall inside the window fire in the same call.
func (s *Scheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		e, ok := s.q.Peek()
		if !ok || e.due > target {
			break
		}
		s.q.Pop()
		t := e.t
		if !s.live.Has(t) || t.seq != e.seq {
			continue // stopped or superseded
		}
		s.now = e.due
		if t.period > 0 {
			s.push(t, e.due+t.period)
		} else {
			s.live.Remove(t)
		}
		t.fn()
	}
	if target > s.now {
		s.now = target
	}
}

// StopAll cancels every pending timer.
func (s *Scheduler) StopAll() {
	s.live = mapset.New[*Timer]()
	s.q = heap.New[entry](entryLess)
}
