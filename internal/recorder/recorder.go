// recorder.go — Capture-session state machine.
// Orchestrates the pause clock, the event log, and audio capture behind
// one lifecycle: Idle → Recording ⇄ Paused → Stopped. The recorder is the
// single source of truth for "recording is active"; a denied microphone
// degrades the session to no-audio mode instead of failing it.
package recorder

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/annotrail/annotrail/internal/audio"
	"github.com/annotrail/annotrail/internal/clock"
	"github.com/annotrail/annotrail/internal/recording"
	"github.com/annotrail/annotrail/internal/timeline"
	"github.com/annotrail/annotrail/internal/util"
)

// Phase is the recorder lifecycle state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRecording Phase = "recording"
	PhasePaused    Phase = "paused"
	PhaseStopped   Phase = "stopped"
)

// Status values pushed to the registered callback.
const (
	StatusRecording        = "recording"
	StatusRecordingNoAudio = "recording-no-audio"
	StatusPaused           = "paused"
	StatusStopped          = "stopped"
	StatusVolumeUpdate     = "volume-update"
)

// Status is one push notification. Time is elapsed recording ms; Volume
// is the current RMS level in [0, 1]; SkewMs reports audio/event pause
// misalignment on stop; Error carries degraded-mode detail.
type Status struct {
	Status string  `json:"status"`
	Time   int64   `json:"time,omitempty"`
	Volume float64 `json:"volume,omitempty"`
	SkewMs int64   `json:"skew_ms,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// StatusFunc receives status notifications. One registrant; invoked from
// both API calls and the background timer goroutine, never while the
// recorder's mutex is held.
type StatusFunc func(Status)

// pauseSkewTolerance is the maximum accepted misalignment between the
// event clock's paused total and the audio capture's paused total before
// replay drift becomes noticeable.
const pauseSkewTolerance = 50 * time.Millisecond

// defaultTickInterval drives live timer/volume updates (~10x/sec).
const defaultTickInterval = 100 * time.Millisecond

// Options configures a Recorder.
type Options struct {
	Device       audio.Device // nil records without audio
	SampleRate   int          // default 44100
	Channels     int          // default 1
	OnStatus     StatusFunc   // optional
	Now          func() time.Time
	TickInterval time.Duration
}

// Recorder owns one capture lifecycle. Instantiable many times; no
// package-level state.
type Recorder struct {
	mu        sync.Mutex
	opts      Options
	phase     Phase
	clk       *clock.PauseClock
	log       *timeline.EventLog
	capture   *audio.Capture
	name      string
	sessionID string
	createdAt time.Time
	hasAudio  bool
	audioErr  string
	tickStop  chan struct{}
}

// New creates an idle Recorder.
func New(opts Options) *Recorder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = 44100
	}
	if opts.Channels == 0 {
		opts.Channels = 1
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = defaultTickInterval
	}
	return &Recorder{
		opts:  opts,
		phase: PhaseIdle,
		clk:   clock.NewWithNow(opts.Now),
		log:   timeline.NewEventLog(),
	}
}

// Phase returns the current lifecycle phase.
func (r *Recorder) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Elapsed returns elapsed recording ms, paused intervals excluded.
func (r *Recorder) Elapsed() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clk.ElapsedMs()
}

// Start begins a new capture session. No-op while already recording or
// paused. Microphone denial or encoder absence degrades to no-audio mode,
// surfaced as a recording-no-audio status; it never fails the session.
func (r *Recorder) Start(name string) {
	r.mu.Lock()
	if r.phase == PhaseRecording || r.phase == PhasePaused {
		r.mu.Unlock()
		return
	}
	r.phase = PhaseRecording
	r.name = name
	r.sessionID = recording.NewSessionID()
	r.createdAt = r.opts.Now()
	r.log.Reset()
	r.clk.Start()
	r.hasAudio = false
	r.audioErr = ""

	if r.opts.Device != nil {
		c, err := audio.Start(r.opts.Device, r.opts.SampleRate, r.opts.Channels, r.opts.Now)
		if err != nil {
			r.audioErr = err.Error()
			if !audio.Recoverable(err) {
				fmt.Fprintf(os.Stderr, "[annotrail] audio capture failed: %v\n", err)
			}
		} else {
			r.capture = c
			r.hasAudio = true
		}
	}
	status := Status{Status: StatusRecording, Time: 0}
	if !r.hasAudio {
		status.Status = StatusRecordingNoAudio
		status.Error = r.audioErr
	}
	r.startTickerLocked()
	r.mu.Unlock()

	r.emit(status)
}

// RecordAction appends a captured UI event. Dropped (never queued) unless
// the recorder is actively recording — actions during Paused or before
// Start do not reach the log.
func (r *Recorder) RecordAction(typ timeline.ActionType, data timeline.ActionData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseRecording {
		return
	}
	r.log.Append(timeline.Action{Time: r.clk.ElapsedMs(), Type: typ, Data: data})
}

// Pause suspends the session. Permitted only while recording.
func (r *Recorder) Pause() {
	r.mu.Lock()
	if r.phase != PhaseRecording {
		r.mu.Unlock()
		return
	}
	r.phase = PhasePaused
	r.clk.Pause()
	if r.capture != nil {
		r.capture.Pause()
	}
	r.stopTickerLocked()
	t := r.clk.ElapsedMs()
	r.mu.Unlock()

	r.emit(Status{Status: StatusPaused, Time: t})
}

// Resume continues a paused session.
func (r *Recorder) Resume() {
	r.mu.Lock()
	if r.phase != PhasePaused {
		r.mu.Unlock()
		return
	}
	r.phase = PhaseRecording
	r.clk.Resume()
	if r.capture != nil {
		r.capture.Resume()
	}
	r.startTickerLocked()
	status := Status{Status: StatusRecording, Time: r.clk.ElapsedMs()}
	if !r.hasAudio {
		status.Status = StatusRecordingNoAudio
	}
	r.mu.Unlock()

	r.emit(status)
}

// Stop finalizes the session and returns the immutable Recording.
// Permitted from Recording or Paused; anywhere else (including a second
// stop) it is a no-op returning nil. A mid-capture device loss still
// produces a recording with the partial audio asset.
func (r *Recorder) Stop() *recording.Recording {
	r.mu.Lock()
	if r.phase != PhaseRecording && r.phase != PhasePaused {
		r.mu.Unlock()
		return nil
	}
	r.phase = PhaseStopped
	r.stopTickerLocked()
	r.clk.Stop()
	duration := r.clk.ElapsedMs()

	var asset []byte
	audioErr := r.audioErr
	var skew time.Duration
	if r.capture != nil {
		var err error
		asset, err = r.capture.Stop()
		if err != nil {
			audioErr = err.Error()
			fmt.Fprintf(os.Stderr, "[annotrail] audio capture ended with error: %v\n", err)
		}
		skew = r.clk.PausedTotal() - r.capture.PausedTotal()
		if skew < 0 {
			skew = -skew
		}
		if skew > pauseSkewTolerance {
			fmt.Fprintf(os.Stderr, "[WARNING] audio_pause_skew: audio and event pause accounting differ by %dms (tolerance %dms)\n",
				skew.Milliseconds(), pauseSkewTolerance.Milliseconds())
		}
		r.capture = nil
	}

	rec := &recording.Recording{
		ID:        recording.NewID(r.name, r.createdAt),
		SessionID: r.sessionID,
		Name:      r.name,
		CreatedAt: r.createdAt.Format(time.RFC3339),
		Duration:  duration,
		Actions:   r.log.Snapshot(),
		Audio:     asset,
	}
	r.mu.Unlock()

	r.emit(Status{
		Status: StatusStopped,
		Time:   duration,
		SkewMs: skew.Milliseconds(),
		Error:  audioErr,
	})
	return rec
}

// emit delivers a status notification. Never called with r.mu held.
func (r *Recorder) emit(s Status) {
	if r.opts.OnStatus != nil {
		r.opts.OnStatus(s)
	}
}

// startTickerLocked launches the live timer/volume goroutine. Caller
// holds r.mu. The ticker is cancelled on every transition out of
// Recording so a stale tick can never fire into a reset state.
func (r *Recorder) startTickerLocked() {
	stop := make(chan struct{})
	r.tickStop = stop
	interval := r.opts.TickInterval
	util.SafeGo(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.mu.Lock()
				if r.phase != PhaseRecording {
					r.mu.Unlock()
					continue
				}
				s := Status{Status: StatusVolumeUpdate, Time: r.clk.ElapsedMs()}
				if r.capture != nil {
					s.Volume = r.capture.Volume()
				}
				r.mu.Unlock()
				r.emit(s)
			}
		}
	})
}

// stopTickerLocked cancels the live status ticker. Caller holds r.mu.
func (r *Recorder) stopTickerLocked() {
	if r.tickStop != nil {
		close(r.tickStop)
		r.tickStop = nil
	}
}
