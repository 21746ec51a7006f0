// types.go — Action types for annotation-session timelines.
// An Action is one timestamped UI event captured during recording and
// re-dispatched during replay.
package timeline

// ActionType identifies the kind of annotation event. The set is closed:
// the player ignores unknown types rather than failing playback.
type ActionType string

const (
	ActionPointerMove     ActionType = "pointer-move"
	ActionToolActivated   ActionType = "tool-activated"
	ActionToolDeactivated ActionType = "tool-deactivated"
	ActionBoxStart        ActionType = "box-start"
	ActionBoxUpdate       ActionType = "box-update"
	ActionBoxEnd          ActionType = "box-end"
)

// Point is a canvas position in unzoomed image coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scale returns the point multiplied by a display zoom factor.
func (p Point) Scale(zoom float64) Point {
	return Point{X: p.X * zoom, Y: p.Y * zoom}
}

// ActionData is the variant payload of an Action. Which fields are set
// depends on the action type: pointer and box actions carry Point, tool
// activation carries Tool and Options.
type ActionData struct {
	Point   *Point         `json:"point,omitempty"`
	Tool    string         `json:"tool,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// Action is a single timestamped annotation event. Time is milliseconds
// elapsed since recording start, excluding paused intervals. Immutable
// once appended to an EventLog.
type Action struct {
	Time int64      `json:"time"`
	Type ActionType `json:"type"`
	Data ActionData `json:"data"`
}

// NeedsPoint reports whether this action type requires a point payload.
func (t ActionType) NeedsPoint() bool {
	switch t {
	case ActionPointerMove, ActionBoxStart, ActionBoxUpdate, ActionBoxEnd:
		return true
	}
	return false
}

// Valid reports whether the action carries the payload its type requires.
// Malformed actions are skipped during replay, never fatal.
func (a Action) Valid() bool {
	if a.Time < 0 {
		return false
	}
	if a.Type.NeedsPoint() && a.Data.Point == nil {
		return false
	}
	if a.Type == ActionToolActivated && a.Data.Tool == "" {
		return false
	}
	return true
}
