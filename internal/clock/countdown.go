package clock

import "time"

// Countdown is a whole-second timer with one periodic tick.
// Restarting it cancels the running tick first, so a countdown never has
// more than one tick source.
type Countdown struct {
	s         *Scheduler
	tick      *Timer
	remaining int
}

// NewCountdown binds a countdown to s.
func NewCountdown(s *Scheduler) *Countdown {
	return &Countdown{s: s}
}

// Start begins counting down from seconds. onTick receives the remaining
// seconds after each decrement; onExpire runs once when it reaches zero.
func (c *Countdown) Start(seconds int, onTick func(remaining int), onExpire func()) {
	c.Stop()
	c.remaining = seconds
	if seconds <= 0 {
		c.tick = c.s.After(0, func() {
			c.tick = nil
			if onExpire != nil {
				onExpire()
			}
		})
		return
	}
	c.tick = c.s.Every(time.Second, func() {
		c.remaining--
		if onTick != nil {
			onTick(c.remaining)
		}
		if c.remaining <= 0 {
			c.Stop()
			if onExpire != nil {
				onExpire()
			}
		}
	})
}

// Remaining is the number of whole seconds left.
func (c *Countdown) Remaining() int { return c.remaining }

// Active reports whether the countdown is still ticking.
func (c *Countdown) Active() bool { return c.tick.Active() }

// Stop halts the countdown, keeping Remaining as is.
func (c *Countdown) Stop() {
	if c.tick != nil {
		c.tick.Stop()
		c.tick = nil
	}
}
