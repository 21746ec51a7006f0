// laser.go — Laser-pointer trail consumer.
// Holds the trail state driven by live input and by replay; rendering is
// the canvas layer's job, reading Points().
package tools

import (
	"sync"

	"github.com/annotrail/annotrail/internal/timeline"
)

// Tool names used as registry keys and in tool-activated actions.
const (
	ToolLaserPointer = "laser-pointer"
	ToolBoundingBox  = "bounding-box"
)

const defaultTrailLen = 24

// LaserTrail keeps the fading pointer trail: a bounded queue of recent
// positions. Deactivating clears the trail so replay restarts clean.
type LaserTrail struct {
	mu      sync.Mutex
	active  bool
	options map[string]any
	trail   []timeline.Point
	maxLen  int
}

// NewLaserTrail creates an inactive trail with the default length.
func NewLaserTrail() *LaserTrail {
	return &LaserTrail{maxLen: defaultTrailLen}
}

// Activate enables the tool with display options (color, size).
func (l *LaserTrail) Activate(options map[string]any) {
	l.mu.Lock()
	l.active = true
	l.options = options
	l.mu.Unlock()
}

// Deactivate disables the tool and clears the trail.
func (l *LaserTrail) Deactivate() {
	l.mu.Lock()
	l.active = false
	l.options = nil
	l.trail = l.trail[:0]
	l.mu.Unlock()
}

// AddTrailPoint appends a position, trimming the oldest beyond the trail
// length. Ignored while inactive.
func (l *LaserTrail) AddTrailPoint(p timeline.Point) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return
	}
	l.trail = append(l.trail, p)
	if len(l.trail) > l.maxLen {
		l.trail = l.trail[len(l.trail)-l.maxLen:]
	}
}

// Points returns a copy of the current trail, oldest first.
func (l *LaserTrail) Points() []timeline.Point {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]timeline.Point, len(l.trail))
	copy(out, l.trail)
	return out
}

// Active reports whether the tool is enabled.
func (l *LaserTrail) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Options returns the activation options, nil when inactive.
func (l *LaserTrail) Options() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.options
}
