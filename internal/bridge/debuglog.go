// debuglog.go — Circular buffer logging of bridge connection activity.
// Thread-safe: owns its own sync.Mutex.
package bridge

import (
	"sync"
	"time"
)

const debugLogSize = 50

// ConnLogEntry records one connection event for operator debugging.
type ConnLogEntry struct {
	At     time.Time `json:"at"`
	Remote string    `json:"remote"`
	Event  string    `json:"event"` // "connect", "disconnect", "message", "drop"
	Detail string    `json:"detail,omitempty"`
}

// DebugLogger keeps the most recent connection events in a circular
// buffer so a wedged bridge can be diagnosed without verbose logging.
type DebugLogger struct {
	mu      sync.Mutex
	entries []ConnLogEntry
	index   int
	filled  bool
}

// NewDebugLogger creates a DebugLogger with a pre-allocated buffer.
func NewDebugLogger() *DebugLogger {
	return &DebugLogger{entries: make([]ConnLogEntry, debugLogSize)}
}

// Log adds an entry, overwriting the oldest once the buffer is full.
func (dl *DebugLogger) Log(entry ConnLogEntry) {
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	dl.mu.Lock()
	dl.entries[dl.index] = entry
	dl.index = (dl.index + 1) % debugLogSize
	if dl.index == 0 {
		dl.filled = true
	}
	dl.mu.Unlock()
}

// Entries returns a copy of the logged events, oldest first.
func (dl *DebugLogger) Entries() []ConnLogEntry {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if !dl.filled {
		out := make([]ConnLogEntry, dl.index)
		copy(out, dl.entries[:dl.index])
		return out
	}
	out := make([]ConnLogEntry, 0, debugLogSize)
	out = append(out, dl.entries[dl.index:]...)
	out = append(out, dl.entries[:dl.index]...)
	return out
}
