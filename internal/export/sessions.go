// sessions.go — Grouping of captured actions into annotation sessions.
// A session spans one tool activation: everything from tool-activated up
// to the matching tool-deactivated (or the next activation). The export
// bundle slices the audio asset along these boundaries.
// Design: standalone functions, no Recorder/Player dependency.
package export

import (
	"github.com/annotrail/annotrail/internal/timeline"
)

// Session is one grouped annotation span with its time window.
type Session struct {
	Index           int               `json:"index"`
	Tool            string            `json:"tool,omitempty"`
	StartTimeOffset int64             `json:"start_time_offset"`
	EndTimeOffset   int64             `json:"end_time_offset"`
	Actions         []timeline.Action `json:"actions"`
}

// GroupSessions splits actions into tool-activation spans. Input order
// may be arbitrary; grouping happens on the time-sorted sequence with
// capture-order tie-breaks, matching replay order. Actions captured
// before any activation form a leading untooled session. The final open
// span ends at duration.
func GroupSessions(actions []timeline.Action, duration int64) []Session {
	sorted := timeline.New(actions).Actions()
	if len(sorted) == 0 {
		return nil
	}

	var sessions []Session
	var current *Session
	closeCurrent := func(end int64) {
		if current == nil {
			return
		}
		current.EndTimeOffset = end
		sessions = append(sessions, *current)
		current = nil
	}

	for _, a := range sorted {
		switch a.Type {
		case timeline.ActionToolActivated:
			closeCurrent(a.Time)
			current = &Session{
				Index:           len(sessions),
				Tool:            a.Data.Tool,
				StartTimeOffset: a.Time,
			}
			current.Actions = append(current.Actions, a)
		case timeline.ActionToolDeactivated:
			if current != nil {
				current.Actions = append(current.Actions, a)
			}
			closeCurrent(a.Time)
		default:
			if current == nil {
				current = &Session{Index: len(sessions), StartTimeOffset: a.Time}
			}
			current.Actions = append(current.Actions, a)
		}
	}
	closeCurrent(duration)
	return sessions
}
