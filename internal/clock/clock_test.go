package clock

import (
	"testing"
	"time"
)

// fakeNow returns a controllable time source starting at a fixed instant.
func fakeNow() (func() time.Time, func(d time.Duration)) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }
	advance := func(d time.Duration) { current = current.Add(d) }
	return now, advance
}

func TestElapsedExcludesPausedTime(t *testing.T) {
	t.Parallel()

	now, advance := fakeNow()
	c := NewWithNow(now)
	c.Start()

	advance(400 * time.Millisecond)
	c.Pause()
	advance(200 * time.Millisecond) // paused, must not count
	c.Resume()
	advance(400 * time.Millisecond)

	if got := c.ElapsedMs(); got != 800 {
		t.Fatalf("ElapsedMs() = %d, want 800", got)
	}
	if got := c.PausedTotal(); got != 200*time.Millisecond {
		t.Fatalf("PausedTotal() = %v, want 200ms", got)
	}
}

func TestMultiplePauseResumeCycles(t *testing.T) {
	t.Parallel()

	now, advance := fakeNow()
	c := NewWithNow(now)
	c.Start()

	for i := 0; i < 5; i++ {
		advance(100 * time.Millisecond)
		c.Pause()
		advance(50 * time.Millisecond)
		c.Resume()
	}

	if got := c.ElapsedMs(); got != 500 {
		t.Fatalf("ElapsedMs() = %d, want 500 after 5 cycles", got)
	}
	if got := c.PausedTotal(); got != 250*time.Millisecond {
		t.Fatalf("PausedTotal() = %v, want 250ms", got)
	}
}

func TestElapsedFrozenWhilePaused(t *testing.T) {
	t.Parallel()

	now, advance := fakeNow()
	c := NewWithNow(now)
	c.Start()

	advance(300 * time.Millisecond)
	c.Pause()
	before := c.ElapsedMs()
	advance(10 * time.Second)
	after := c.ElapsedMs()

	if before != after {
		t.Fatalf("elapsed moved while paused: %d -> %d", before, after)
	}
}

func TestStopFreezesElapsed(t *testing.T) {
	t.Parallel()

	now, advance := fakeNow()
	c := NewWithNow(now)
	c.Start()
	advance(700 * time.Millisecond)
	c.Stop()
	advance(5 * time.Second)

	if got := c.ElapsedMs(); got != 700 {
		t.Fatalf("ElapsedMs() after Stop = %d, want 700", got)
	}
	if c.Running() {
		t.Fatal("Running() = true after Stop")
	}
}

func TestRedundantTransitionsAreNoOps(t *testing.T) {
	t.Parallel()

	now, advance := fakeNow()
	c := NewWithNow(now)

	c.Pause()  // not running
	c.Resume() // not running
	c.Start()
	c.Resume() // not paused
	advance(100 * time.Millisecond)
	c.Pause()
	c.Pause() // already paused
	advance(100 * time.Millisecond)
	c.Resume()

	if got := c.ElapsedMs(); got != 100 {
		t.Fatalf("ElapsedMs() = %d, want 100", got)
	}
}

func TestStopWhilePausedKeepsPausedTotal(t *testing.T) {
	t.Parallel()

	now, advance := fakeNow()
	c := NewWithNow(now)
	c.Start()
	advance(300 * time.Millisecond)
	c.Pause()
	advance(150 * time.Millisecond)
	c.Stop()

	if got := c.ElapsedMs(); got != 300 {
		t.Fatalf("ElapsedMs() = %d, want 300", got)
	}
	if got := c.PausedTotal(); got != 150*time.Millisecond {
		t.Fatalf("PausedTotal() = %v, want 150ms", got)
	}
}

func TestElapsedNeverGoesBackward(t *testing.T) {
	t.Parallel()

	now, advance := fakeNow()
	c := NewWithNow(now)
	c.Start()

	var prev int64
	for i := 0; i < 50; i++ {
		advance(17 * time.Millisecond)
		got := c.ElapsedMs()
		if got < prev {
			t.Fatalf("elapsed went backward: %d after %d", got, prev)
		}
		prev = got
	}
}
