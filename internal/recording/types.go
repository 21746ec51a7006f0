// types.go — Recording types for annotation-session capture and replay.
// A Recording is the immutable bundle of duration, captured actions, and
// the optional audio asset produced by one capture session.
package recording

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/annotrail/annotrail/internal/timeline"
)

// Recording represents one captured annotation session. Immutable once
// produced by the recorder; the player works on its own copies.
type Recording struct {
	ID        string            `json:"id"`         // Format: "name-YYYYMMDDTHHMMSS-nnnnnnnnnZ"
	SessionID string            `json:"session_id"` // UUID, stable across renames
	Name      string            `json:"name,omitempty"`
	CreatedAt string            `json:"created_at"` // ISO8601 timestamp
	Duration  int64             `json:"duration"`   // Elapsed ms, paused intervals excluded
	Actions   []timeline.Action `json:"actions"`    // Capture order
	Audio     []byte            `json:"audio,omitempty"` // WAV asset, base64 in JSON; absent in no-audio mode
}

// NewID generates a recording ID from an optional name plus a
// nanosecond-precision timestamp (prevents collisions).
func NewID(name string, now time.Time) string {
	timestamp := fmt.Sprintf("%s-%09dZ", now.Format("20060102T150405"), now.Nanosecond())
	if name != "" {
		return fmt.Sprintf("%s-%s", name, timestamp)
	}
	return fmt.Sprintf("recording-%s", timestamp)
}

// NewSessionID returns a fresh UUID for a capture session.
func NewSessionID() string {
	return uuid.NewString()
}

// HasAudio reports whether the recording carries an audio asset.
func (r *Recording) HasAudio() bool {
	return r != nil && len(r.Audio) > 0
}

// ActionCount returns the number of captured actions.
func (r *Recording) ActionCount() int {
	if r == nil {
		return 0
	}
	return len(r.Actions)
}

// Validate checks the structural invariants a loaded recording must hold:
// non-negative duration and every action time within [0, duration].
func (r *Recording) Validate() error {
	if r.Duration < 0 {
		return fmt.Errorf("recording_invalid: negative duration %d", r.Duration)
	}
	for i, a := range r.Actions {
		if a.Time < 0 || a.Time > r.Duration {
			return fmt.Errorf("recording_invalid: action %d time %d outside [0, %d]", i, a.Time, r.Duration)
		}
	}
	return nil
}

// Marshal encodes the recording as its JSON persistence document
// {duration, actions, audio}. The audio asset is embedded base64.
func (r *Recording) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("recording_encode_failed: %w", err)
	}
	return data, nil
}

// Unmarshal decodes and validates a persisted recording document.
// A decode or validation failure aborts the load; the caller's prior
// state is untouched.
func Unmarshal(data []byte) (*Recording, error) {
	var r Recording
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("recording_decode_failed: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}
