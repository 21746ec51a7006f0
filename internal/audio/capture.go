// capture.go — Microphone capture into one contiguous PCM buffer.
// Runs a single reader goroutine against the input Source; pause drops
// incoming samples while a pause clock tracks the skipped wall time, so
// the audio asset and the event log agree on paused duration. The input
// device is released on every exit path: normal stop, mid-capture device
// loss, and teardown.
package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/annotrail/annotrail/internal/clock"
	"github.com/annotrail/annotrail/internal/util"
)

const readChunkSamples = 2048

// stopFlushTimeout bounds how long Stop waits for the reader goroutine to
// drain after the source is closed.
const stopFlushTimeout = 2 * time.Second

// Capture records an input Source for the duration of one session.
type Capture struct {
	mu         sync.Mutex
	src        Source
	sampleRate int
	channels   int
	samples    []int16
	clk        *clock.PauseClock
	paused     bool
	stopping   bool
	released   bool
	lastRMS    float64
	captureErr error
	done       chan struct{}
}

// Start opens the device and begins capturing. Open failures (device
// denied, encoder unavailable) propagate to the caller, which decides
// whether to degrade to no-audio mode via Recoverable. The pause clock
// runs on now (nil means time.Now); the recorder passes its own time
// source so the skew comparison reads both clocks off the same base.
func Start(dev Device, sampleRate, channels int, now func() time.Time) (*Capture, error) {
	src, err := dev.Open(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	c := &Capture{
		src:        src,
		sampleRate: sampleRate,
		channels:   channels,
		samples:    make([]int16, 0, sampleRate*channels), // ~1s preallocated
		clk:        clock.NewWithNow(now),
		done:       make(chan struct{}),
	}
	c.clk.Start()
	util.SafeGo(c.readLoop)
	return c, nil
}

// readLoop drains the source until EOF or error. Samples arriving while
// paused are dropped, never queued.
func (c *Capture) readLoop() {
	defer close(c.done)
	defer c.release()

	buf := make([]int16, readChunkSamples)
	for {
		n, err := c.src.Read(buf)
		if n > 0 {
			c.mu.Lock()
			// Chunks still in flight at stop time are flushed into the
			// asset; only paused intervals drop samples.
			if !c.paused {
				c.samples = append(c.samples, buf[:n]...)
			}
			c.lastRMS = rms(buf[:n])
			c.mu.Unlock()
		}
		if err != nil {
			if err != io.EOF {
				c.mu.Lock()
				if !c.stopping {
					c.captureErr = fmt.Errorf("audio_read_failed: %v: %w", err, ErrDeviceLost)
				}
				c.mu.Unlock()
			}
			return
		}
	}
}

// release closes the input source exactly once.
func (c *Capture) release() {
	c.mu.Lock()
	already := c.released
	c.released = true
	c.mu.Unlock()
	if !already {
		_ = c.src.Close()
	}
}

// Pause stops accumulating samples and starts pause-time accounting.
func (c *Capture) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused || c.stopping {
		return
	}
	c.paused = true
	c.clk.Pause()
}

// Resume continues accumulation after Pause.
func (c *Capture) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused || c.stopping {
		return
	}
	c.paused = false
	c.clk.Resume()
}

// Stop flushes buffered samples into one contiguous WAV asset and
// releases the input device. Safe to call multiple times; repeated stops
// return nil without error. Device loss mid-capture yields the partial
// asset together with the wrapped ErrDeviceLost.
func (c *Capture) Stop() ([]byte, error) {
	c.mu.Lock()
	if c.stopping {
		c.mu.Unlock()
		return nil, nil
	}
	c.stopping = true
	c.clk.Stop()
	c.mu.Unlock()

	c.release()
	select {
	case <-c.done:
	case <-time.After(stopFlushTimeout):
		// reader wedged on a misbehaving source; proceed with what we have
	}

	c.mu.Lock()
	samples := c.samples
	captureErr := c.captureErr
	c.mu.Unlock()

	asset, err := EncodeWAV(samples, c.sampleRate, c.channels)
	if err != nil {
		return nil, err
	}
	return asset, captureErr
}

// Volume returns the RMS amplitude of the most recent chunk, in [0, 1].
func (c *Capture) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRMS
}

// PausedTotal returns the total wall time this capture spent paused. The
// recorder compares it against the event clock's paused total to detect
// pause-alignment drift.
func (c *Capture) PausedTotal() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clk.PausedTotal()
}

// SampleCount returns the number of captured samples so far.
func (c *Capture) SampleCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

// Err returns the terminal capture error, if any (device loss).
func (c *Capture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.captureErr
}
