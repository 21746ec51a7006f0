// eventlog.go — Append-only store for captured actions.
// Owns its own sync.Mutex; the Recorder serializes lifecycle transitions
// separately, but bridge handlers may append concurrently with the
// status ticker reading the count.
package timeline

import "sync"

// EventLog collects actions in capture order during a recording session.
type EventLog struct {
	mu      sync.Mutex
	actions []Action
}

// NewEventLog creates an empty EventLog.
func NewEventLog() *EventLog {
	return &EventLog{actions: make([]Action, 0, 256)}
}

// Append adds an action. Capture order is preserved; it is the tie-break
// key for equal timestamps at replay time.
func (l *EventLog) Append(a Action) {
	l.mu.Lock()
	l.actions = append(l.actions, a)
	l.mu.Unlock()
}

// Len returns the number of captured actions.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.actions)
}

// Snapshot returns an independent copy of the captured actions.
// The returned slice does not alias the log's internal storage.
func (l *EventLog) Snapshot() []Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Action, len(l.actions))
	copy(out, l.actions)
	return out
}

// Reset discards all captured actions.
func (l *EventLog) Reset() {
	l.mu.Lock()
	l.actions = l.actions[:0]
	l.mu.Unlock()
}
