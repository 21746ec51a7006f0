// consumer.go — Contracts the player drives during replay.
// The player never draws; it reconstructs synthetic events and pushes
// them through these interfaces, so replay visuals equal live visuals.
package player

import "github.com/annotrail/annotrail/internal/timeline"

// ToolConsumer is the base contract every drawing tool implements.
type ToolConsumer interface {
	Activate(options map[string]any)
	Deactivate()
}

// TrailConsumer is a pointer-like tool (laser pointer).
type TrailConsumer interface {
	ToolConsumer
	AddTrailPoint(p timeline.Point)
}

// BoxConsumer is a box-like tool (bounding boxes).
type BoxConsumer interface {
	ToolConsumer
	StartBox(p timeline.Point)
	UpdateBox(p timeline.Point)
	FinishBox(p timeline.Point)
	ClearBoxes()
}

// Registry maps tool names (as stored in tool-activated actions) to
// their consumers. Injected at construction; replaces the original
// pattern of polling for global functions.
type Registry map[string]ToolConsumer

// AudioSink plays the recording's audio asset in step with the dispatch
// loop. The bridge forwards these calls to the browser's audio element;
// headless replay uses no sink. onEnded fires once when playback ends or
// errors; the player treats it as the authoritative end of playback.
type AudioSink interface {
	Play(asset []byte, onEnded func(err error)) error
	Pause()
	Resume()
	Stop()
}
