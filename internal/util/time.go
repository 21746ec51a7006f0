// time.go — Timestamp parsing and duration formatting helpers.
package util

import (
	"fmt"
	"time"
)

// ParseTimestamp parses an RFC3339 timestamp string, trying RFC3339Nano first
// (since it's a superset of RFC3339), then RFC3339 as a fallback.
// Returns zero time on failure.
func ParseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

// FormatMs renders an elapsed-millisecond value as m:ss.t for timer and
// listing output (e.g. 83450 -> "1:23.4").
func FormatMs(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	tenths := (ms % 1000) / 100
	return fmt.Sprintf("%d:%02d.%d", mins, secs, tenths)
}
