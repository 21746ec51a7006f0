// player.go — Replay state machine.
// Drives a Timeline against a pause clock, synchronized with audio
// playback, dispatching reconstructed events to tool consumers:
// Idle → Loaded → Playing ⇄ Paused → Stopped. A fresh Play after Stop
// always restarts from time zero with tool state reset.
package player

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/annotrail/annotrail/internal/clock"
	"github.com/annotrail/annotrail/internal/recording"
	"github.com/annotrail/annotrail/internal/timeline"
	"github.com/annotrail/annotrail/internal/util"
)

// Phase is the player lifecycle state.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoaded  Phase = "loaded"
	PhasePlaying Phase = "playing"
	PhasePaused  Phase = "paused"
	PhaseStopped Phase = "stopped"
)

// Status values pushed to the registered callback.
const (
	StatusLoaded        = "loaded"
	StatusPlaying       = "playing"
	StatusPaused        = "paused"
	StatusStopped       = "stopped"
	StatusProgress      = "progress"
	StatusToolActivated = "tool-activated"
)

// Status is one push notification from the player.
type Status struct {
	Status   string         `json:"status"`
	Time     int64          `json:"time,omitempty"`
	Duration int64          `json:"duration,omitempty"`
	Tool     string         `json:"tool,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

// StatusFunc receives player status notifications. One registrant; never
// invoked while the player's mutex is held.
type StatusFunc func(Status)

// defaultTickInterval approximates animation-frame granularity, bounding
// audio/event skew to one scheduling quantum.
const defaultTickInterval = 16 * time.Millisecond

// Options configures a Player.
type Options struct {
	Tools        Registry
	Audio        AudioSink // nil for headless replay
	OnStatus     StatusFunc
	Now          func() time.Time
	TickInterval time.Duration
	Zoom         float64 // display zoom factor, default 1.0
}

// Player replays one loaded Recording. It owns an independent working
// copy of the action queue; the source recording is never mutated.
type Player struct {
	mu          sync.Mutex
	opts        Options
	phase       Phase
	rec         *recording.Recording
	tl          *timeline.Timeline
	clk         *clock.PauseClock
	zoom        float64
	currentTool string
	tickStop    chan struct{}
}

// New creates an idle Player.
func New(opts Options) *Player {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.Zoom == 0 {
		opts.Zoom = 1.0
	}
	return &Player{
		opts:  opts,
		phase: PhaseIdle,
		clk:   clock.NewWithNow(opts.Now),
		zoom:  opts.Zoom,
	}
}

// Phase returns the current lifecycle phase.
func (p *Player) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// SetZoom updates the display zoom factor applied to replayed positions.
func (p *Player) SetZoom(zoom float64) {
	p.mu.Lock()
	if zoom > 0 {
		p.zoom = zoom
	}
	p.mu.Unlock()
}

// Load attaches a recording: builds the sorted pending-actions queue,
// resets the cursor, and fires a loaded status with the total duration.
// The audio asset is attached but not yet played. Loading over an active
// playback halts it first: ticker cancelled, audio silenced, tool states
// reset, so nothing from the previous recording leaks into Loaded.
func (p *Player) Load(rec *recording.Recording) error {
	if rec == nil {
		return fmt.Errorf("player_no_recording: Nothing to load")
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	wasActive := p.phase == PhasePlaying || p.phase == PhasePaused
	p.stopTickerLocked()
	if wasActive {
		p.clk.Stop()
		p.resetToolsLocked()
	}
	p.rec = rec
	p.tl = timeline.New(rec.Actions)
	p.phase = PhaseLoaded
	p.currentTool = ""
	duration := rec.Duration
	sink := p.opts.Audio
	p.mu.Unlock()

	if wasActive && sink != nil {
		sink.Stop()
	}
	p.emit(Status{Status: StatusLoaded, Duration: duration})
	return nil
}

// Play starts or resumes playback. From Loaded or Stopped it restarts
// from time zero: cursor rewound, tool states reset to baseline, audio
// restarted in the same tick the dispatch loop begins. From Paused it
// resumes without resetting. Calling Play while already Playing is a
// documented no-op.
func (p *Player) Play() {
	p.mu.Lock()
	switch p.phase {
	case PhasePlaying, PhaseIdle:
		p.mu.Unlock()
		return
	case PhasePaused:
		p.phase = PhasePlaying
		p.clk.Resume()
		p.startTickerLocked()
		t := p.clk.ElapsedMs()
		duration := p.rec.Duration
		sink := p.opts.Audio
		hasAudio := p.rec.HasAudio()
		p.mu.Unlock()

		if sink != nil && hasAudio {
			sink.Resume()
		}
		p.emit(Status{Status: StatusPlaying, Time: t, Duration: duration})
		return
	}

	// Loaded or Stopped: restart from zero. A second playback must not
	// inherit visual state from the first.
	p.resetToolsLocked()
	p.tl.Rewind()
	p.currentTool = ""
	p.clk.Start()
	p.phase = PhasePlaying
	p.startTickerLocked()
	duration := p.rec.Duration
	asset := p.rec.Audio
	sink := p.opts.Audio
	p.mu.Unlock()

	if sink != nil && len(asset) > 0 {
		if err := sink.Play(asset, p.onAudioEnded); err != nil {
			fmt.Fprintf(os.Stderr, "[annotrail] audio playback failed, continuing without audio: %v\n", err)
		}
	}
	p.emit(Status{Status: StatusPlaying, Time: 0, Duration: duration})
}

// Pause freezes playback. Elapsed time is frozen, not reset.
func (p *Player) Pause() {
	p.mu.Lock()
	if p.phase != PhasePlaying {
		p.mu.Unlock()
		return
	}
	p.phase = PhasePaused
	p.clk.Pause()
	p.stopTickerLocked()
	t := p.clk.ElapsedMs()
	sink := p.opts.Audio
	hasAudio := p.rec.HasAudio()
	p.mu.Unlock()

	if sink != nil && hasAudio {
		sink.Pause()
	}
	p.emit(Status{Status: StatusPaused, Time: t})
}

// Stop halts playback, rewinds audio, resets elapsed to zero, and resets
// tool states. Safe to call from any state, any number of times.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.phase != PhasePlaying && p.phase != PhasePaused {
		p.mu.Unlock()
		return
	}
	p.stopTickerLocked()
	p.clk.Stop()
	p.resetToolsLocked()
	p.currentTool = ""
	p.phase = PhaseStopped
	sink := p.opts.Audio
	p.mu.Unlock()

	if sink != nil {
		sink.Stop()
	}
	p.emit(Status{Status: StatusStopped})
}

// Tick advances the dispatch loop one scheduling step: recompute elapsed,
// dispatch every due action, then either finish (elapsed >= duration) or
// report progress. The internal ticker calls this at the configured
// interval; tests drive it directly.
func (p *Player) Tick() {
	p.mu.Lock()
	if p.phase != PhasePlaying {
		p.mu.Unlock()
		return
	}
	elapsed := p.clk.ElapsedMs()
	var due []timeline.Action
	p.tl.ProcessDue(elapsed, func(a timeline.Action) { due = append(due, a) })
	finished := elapsed >= p.rec.Duration
	if finished {
		p.stopTickerLocked()
		p.clk.Stop()
		p.phase = PhaseStopped
	}
	zoom := p.zoom
	duration := p.rec.Duration
	sink := p.opts.Audio
	p.mu.Unlock()

	for _, a := range due {
		p.dispatch(a, zoom)
	}
	if finished {
		if sink != nil {
			sink.Stop()
		}
		p.emit(Status{Status: StatusStopped, Time: duration, Duration: duration})
		return
	}
	p.emit(Status{Status: StatusProgress, Time: elapsed, Duration: duration})
}

// dispatch translates one action back into a synthetic tool event,
// scaled by the display zoom. A malformed action is skipped with a log
// line; it never halts the rest of the timeline.
func (p *Player) dispatch(a timeline.Action, zoom float64) {
	if !a.Valid() {
		fmt.Fprintf(os.Stderr, "[annotrail] skipping malformed action at t=%d type=%s\n", a.Time, a.Type)
		return
	}
	switch a.Type {
	case timeline.ActionToolActivated:
		consumer := p.consumer(a.Data.Tool)
		if consumer == nil {
			fmt.Fprintf(os.Stderr, "[annotrail] skipping action for unknown tool %q\n", a.Data.Tool)
			return
		}
		p.mu.Lock()
		p.currentTool = a.Data.Tool
		p.mu.Unlock()
		consumer.Activate(a.Data.Options)
		p.emit(Status{Status: StatusToolActivated, Time: a.Time, Tool: a.Data.Tool, Options: a.Data.Options})

	case timeline.ActionToolDeactivated:
		if consumer := p.currentConsumer(); consumer != nil {
			consumer.Deactivate()
		}
		p.mu.Lock()
		p.currentTool = ""
		p.mu.Unlock()

	case timeline.ActionPointerMove:
		trail, ok := p.currentConsumer().(TrailConsumer)
		if !ok {
			fmt.Fprintf(os.Stderr, "[annotrail] skipping pointer-move: active tool is not pointer-like\n")
			return
		}
		trail.AddTrailPoint(a.Data.Point.Scale(zoom))

	case timeline.ActionBoxStart, timeline.ActionBoxUpdate, timeline.ActionBoxEnd:
		box, ok := p.currentConsumer().(BoxConsumer)
		if !ok {
			fmt.Fprintf(os.Stderr, "[annotrail] skipping %s: active tool is not box-like\n", a.Type)
			return
		}
		pt := a.Data.Point.Scale(zoom)
		switch a.Type {
		case timeline.ActionBoxStart:
			box.StartBox(pt)
		case timeline.ActionBoxUpdate:
			box.UpdateBox(pt)
		case timeline.ActionBoxEnd:
			box.FinishBox(pt)
		}

	default:
		fmt.Fprintf(os.Stderr, "[annotrail] skipping unknown action type %q\n", a.Type)
	}
}

// consumer looks up a registered tool consumer by name.
func (p *Player) consumer(tool string) ToolConsumer {
	if p.opts.Tools == nil {
		return nil
	}
	return p.opts.Tools[tool]
}

// currentConsumer returns the consumer of the currently active tool.
func (p *Player) currentConsumer() ToolConsumer {
	p.mu.Lock()
	tool := p.currentTool
	p.mu.Unlock()
	return p.consumer(tool)
}

// resetToolsLocked returns every registered tool to its neutral baseline:
// deactivated, boxes cleared. Caller holds p.mu.
func (p *Player) resetToolsLocked() {
	for _, consumer := range p.opts.Tools {
		consumer.Deactivate()
		if box, ok := consumer.(BoxConsumer); ok {
			box.ClearBoxes()
		}
	}
}

// onAudioEnded handles the audio asset finishing or erroring. Audio is
// the authoritative end-of-playback signal when present.
func (p *Player) onAudioEnded(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "[annotrail] audio playback ended with error: %v\n", err)
	}
	p.Stop()
}

// emit delivers a status notification. Never called with p.mu held.
func (p *Player) emit(s Status) {
	if p.opts.OnStatus != nil {
		p.opts.OnStatus(s)
	}
}

// startTickerLocked launches the dispatch ticker. Caller holds p.mu.
// Cancelled on every transition out of Playing so a stale tick can never
// fire into a reset state.
func (p *Player) startTickerLocked() {
	stop := make(chan struct{})
	p.tickStop = stop
	interval := p.opts.TickInterval
	util.SafeGo(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.Tick()
			}
		}
	})
}

// stopTickerLocked cancels the dispatch ticker. Caller holds p.mu.
func (p *Player) stopTickerLocked() {
	if p.tickStop != nil {
		close(p.tickStop)
		p.tickStop = nil
	}
}
