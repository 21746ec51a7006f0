// timeline.go — Sorted, replayable view over a recording's actions.
// Builds a strictly time-ascending queue (stable sort preserves capture
// order for equal timestamps) and exposes a dispatch cursor.
package timeline

import "sort"

// DispatchFunc receives each due action exactly once, in timeline order.
type DispatchFunc func(Action)

// Timeline is the scheduling view the Player drives. It owns an
// independent working copy of the actions; the source recording is never
// mutated. Not safe for concurrent use; the Player holds it under its
// own mutex.
type Timeline struct {
	actions []Action
	cursor  int
}

// New builds a Timeline from actions in any order. The input slice is
// copied, then stable-sorted by time so that actions captured with equal
// timestamps (box-start/update/end bursts) keep their causal order.
func New(actions []Action) *Timeline {
	sorted := make([]Action, len(actions))
	copy(sorted, actions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})
	return &Timeline{actions: sorted}
}

// ProcessDue dispatches every not-yet-dispatched action whose time is at
// or before elapsed, in order, and advances the cursor past them. A
// coarse tick that covers several action timestamps dispatches all of
// them in that call. Repeated calls with non-decreasing elapsed never
// dispatch an action twice. Returns the number dispatched.
func (t *Timeline) ProcessDue(elapsed int64, dispatch DispatchFunc) int {
	n := 0
	for t.cursor < len(t.actions) && t.actions[t.cursor].Time <= elapsed {
		dispatch(t.actions[t.cursor])
		t.cursor++
		n++
	}
	return n
}

// Rewind resets the cursor so the next ProcessDue starts from time zero.
func (t *Timeline) Rewind() { t.cursor = 0 }

// Remaining returns the number of actions not yet dispatched.
func (t *Timeline) Remaining() int { return len(t.actions) - t.cursor }

// Len returns the total number of actions in the timeline.
func (t *Timeline) Len() int { return len(t.actions) }

// Actions returns the sorted action sequence. Callers must not modify it.
func (t *Timeline) Actions() []Action { return t.actions }
