// clock.go — Pausable elapsed-time source for recording and playback.
// Elapsed time is wall-clock time since Start minus accumulated paused
// duration. The zero value is unusable; construct with New.
package clock

import "time"

// PauseClock measures elapsed milliseconds excluding paused intervals.
// Not safe for concurrent use; owners (Recorder, Player) serialize access
// under their own mutex.
type PauseClock struct {
	now         func() time.Time
	start       time.Time
	pauseStart  time.Time
	pausedAccum time.Duration
	lastElapsed time.Duration
	running     bool
	paused      bool
}

// New creates a stopped PauseClock using the real wall clock.
func New() *PauseClock {
	return NewWithNow(time.Now)
}

// NewWithNow creates a PauseClock driven by the given time source.
// Tests inject a fake source to make elapsed time deterministic.
func NewWithNow(now func() time.Time) *PauseClock {
	return &PauseClock{now: now}
}

// Start begins elapsed-time accounting from zero. Restarting a running
// clock resets it.
func (c *PauseClock) Start() {
	c.start = c.now()
	c.pausedAccum = 0
	c.lastElapsed = 0
	c.running = true
	c.paused = false
}

// Pause freezes elapsed time. No-op unless running and not already paused.
func (c *PauseClock) Pause() {
	if !c.running || c.paused {
		return
	}
	c.pauseStart = c.now()
	c.paused = true
}

// Resume continues elapsed-time accounting after Pause. The interval spent
// paused is added to the paused accumulator so Elapsed excludes it.
func (c *PauseClock) Resume() {
	if !c.running || !c.paused {
		return
	}
	c.pausedAccum += c.now().Sub(c.pauseStart)
	c.paused = false
}

// Stop freezes the clock at its current elapsed value. Stopping while
// paused folds the in-progress pause into the paused accumulator so
// PausedTotal stays exact.
func (c *PauseClock) Stop() {
	if !c.running {
		return
	}
	c.lastElapsed = c.Elapsed()
	if c.paused {
		c.pausedAccum += c.now().Sub(c.pauseStart)
	}
	c.running = false
	c.paused = false
}

// Elapsed returns time elapsed since Start, excluding paused intervals.
// Never goes backward, even across repeated pause/resume cycles.
func (c *PauseClock) Elapsed() time.Duration {
	if !c.running {
		return c.lastElapsed
	}
	var e time.Duration
	if c.paused {
		e = c.pauseStart.Sub(c.start) - c.pausedAccum
	} else {
		e = c.now().Sub(c.start) - c.pausedAccum
	}
	if e < c.lastElapsed {
		return c.lastElapsed
	}
	c.lastElapsed = e
	return e
}

// ElapsedMs returns Elapsed in whole milliseconds.
func (c *PauseClock) ElapsedMs() int64 {
	return c.Elapsed().Milliseconds()
}

// PausedTotal returns the total duration spent paused so far, including
// the current pause if one is in progress.
func (c *PauseClock) PausedTotal() time.Duration {
	if c.paused {
		return c.pausedAccum + c.now().Sub(c.pauseStart)
	}
	return c.pausedAccum
}

// Running reports whether the clock has been started and not stopped.
func (c *PauseClock) Running() bool { return c.running }

// Paused reports whether the clock is currently paused.
func (c *PauseClock) Paused() bool { return c.paused }
