// bbox.go — Bounding-box tool consumer.
// Tracks the in-progress box during a start/update/finish burst plus the
// finished boxes of the session.
package tools

import (
	"sync"

	"github.com/annotrail/annotrail/internal/timeline"
)

// Box is one drawn bounding box, kept as its two drag endpoints.
type Box struct {
	Origin timeline.Point `json:"origin"`
	Corner timeline.Point `json:"corner"`
}

// Rect returns the normalized x, y, width, height of the box.
func (b Box) Rect() (x, y, w, h float64) {
	x, w = b.Origin.X, b.Corner.X-b.Origin.X
	if w < 0 {
		x, w = b.Corner.X, -w
	}
	y, h = b.Origin.Y, b.Corner.Y-b.Origin.Y
	if h < 0 {
		y, h = b.Corner.Y, -h
	}
	return x, y, w, h
}

// BoundingBoxTool implements the box-like tool consumer contract.
type BoundingBoxTool struct {
	mu      sync.Mutex
	active  bool
	options map[string]any
	boxes   []Box
	current *Box
}

// NewBoundingBoxTool creates an inactive tool with no boxes.
func NewBoundingBoxTool() *BoundingBoxTool {
	return &BoundingBoxTool{}
}

// Activate enables the tool with display options.
func (b *BoundingBoxTool) Activate(options map[string]any) {
	b.mu.Lock()
	b.active = true
	b.options = options
	b.mu.Unlock()
}

// Deactivate disables the tool. An unfinished drag is discarded; finished
// boxes stay until ClearBoxes.
func (b *BoundingBoxTool) Deactivate() {
	b.mu.Lock()
	b.active = false
	b.options = nil
	b.current = nil
	b.mu.Unlock()
}

// StartBox begins a drag at p. Ignored while inactive.
func (b *BoundingBoxTool) StartBox(p timeline.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return
	}
	b.current = &Box{Origin: p, Corner: p}
}

// UpdateBox moves the drag corner. No-op without an in-progress box.
func (b *BoundingBoxTool) UpdateBox(p timeline.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return
	}
	b.current.Corner = p
}

// FinishBox completes the drag at p and stores the box.
func (b *BoundingBoxTool) FinishBox(p timeline.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return
	}
	b.current.Corner = p
	b.boxes = append(b.boxes, *b.current)
	b.current = nil
}

// ClearBoxes removes all boxes and any in-progress drag.
func (b *BoundingBoxTool) ClearBoxes() {
	b.mu.Lock()
	b.boxes = nil
	b.current = nil
	b.mu.Unlock()
}

// Boxes returns a copy of the finished boxes in draw order.
func (b *BoundingBoxTool) Boxes() []Box {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Box, len(b.boxes))
	copy(out, b.boxes)
	return out
}

// Current returns a copy of the in-progress box, or nil.
func (b *BoundingBoxTool) Current() *Box {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil
	}
	c := *b.current
	return &c
}

// Active reports whether the tool is enabled.
func (b *BoundingBoxTool) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}
