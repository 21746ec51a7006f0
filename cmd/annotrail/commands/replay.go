// replay.go — The replay command: headless replay of a recording.
// Drives the same player the daemon uses, with real tool consumers, and
// prints the dispatch order plus the reconstructed annotations.
package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/annotrail/annotrail/cmd/annotrail/config"
	"github.com/annotrail/annotrail/cmd/annotrail/output"
	"github.com/annotrail/annotrail/internal/player"
	"github.com/annotrail/annotrail/internal/timeline"
	"github.com/annotrail/annotrail/internal/tools"
	"github.com/annotrail/annotrail/internal/util"
)

// Replay replays a recording without a browser and reports the result.
func Replay(cfg config.Config, args []string) *output.Result {
	id, remaining, usageErr := requireID("replay", args)
	if usageErr != nil {
		return usageErr
	}

	zoom := 1.0
	if zs, rest := parseFlag(remaining, "--zoom"); zs != "" {
		z, err := strconv.ParseFloat(zs, 64)
		if err != nil || z <= 0 {
			return usageFailure("replay", fmt.Sprintf("invalid --zoom %q", zs))
		}
		zoom = z
		remaining = rest
	}
	_ = remaining

	store, err := openStore(cfg)
	if err != nil {
		return failure("replay", err)
	}
	rec, err := store.Load(id)
	if err != nil {
		return failure("replay", err)
	}

	trail := tools.NewLaserTrail()
	boxes := tools.NewBoundingBoxTool()

	// Offline replay: a manual clock jumps straight to the end so the
	// whole timeline dispatches in one tick, in replay order.
	cur := time.Unix(0, 0)
	p := player.New(player.Options{
		Tools: player.Registry{
			tools.ToolLaserPointer: trail,
			tools.ToolBoundingBox:  boxes,
		},
		Now:          func() time.Time { return cur },
		TickInterval: time.Hour,
		Zoom:         zoom,
	})
	if err := p.Load(rec); err != nil {
		return failure("replay", err)
	}
	p.Play()
	cur = cur.Add(time.Duration(rec.Duration+1) * time.Millisecond)
	p.Tick()

	sorted := timeline.New(rec.Actions).Actions()
	var sb strings.Builder
	for _, a := range sorted {
		sb.WriteString(fmt.Sprintf("%s  %s%s\n", util.FormatMs(a.Time), a.Type, describeAction(a)))
	}

	finalBoxes := boxes.Boxes()
	sb.WriteString(fmt.Sprintf("\ntrail points: %d\n", len(trail.Points())))
	sb.WriteString(fmt.Sprintf("boxes: %d\n", len(finalBoxes)))
	for i, b := range finalBoxes {
		x, y, w, h := b.Rect()
		sb.WriteString(fmt.Sprintf("  %d. (%.1f, %.1f) %gx%g\n", i+1, x, y, w, h))
	}

	boxData := make([]map[string]any, 0, len(finalBoxes))
	for _, b := range finalBoxes {
		x, y, w, h := b.Rect()
		boxData = append(boxData, map[string]any{"x": x, "y": y, "w": w, "h": h})
	}

	return &output.Result{
		Success: true,
		Command: "replay",
		Text:    sb.String(),
		Data: map[string]any{
			"id":           rec.ID,
			"duration":     rec.Duration,
			"actions":      len(sorted),
			"trail_points": len(trail.Points()),
			"boxes":        boxData,
			"zoom":         zoom,
		},
	}
}

// describeAction renders the payload part of an action line.
func describeAction(a timeline.Action) string {
	switch {
	case a.Type == timeline.ActionToolActivated:
		return " " + a.Data.Tool
	case a.Data.Point != nil:
		return fmt.Sprintf(" (%.1f, %.1f)", a.Data.Point.X, a.Data.Point.Y)
	}
	return ""
}
