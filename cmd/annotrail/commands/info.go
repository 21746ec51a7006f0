// info.go — The info command: show one recording in detail.
package commands

import (
	"fmt"
	"strings"

	"github.com/annotrail/annotrail/cmd/annotrail/config"
	"github.com/annotrail/annotrail/cmd/annotrail/output"
	"github.com/annotrail/annotrail/internal/export"
	"github.com/annotrail/annotrail/internal/util"
)

// Info shows one recording's metadata, tool sessions, and action counts.
func Info(cfg config.Config, args []string) *output.Result {
	id, _, usageErr := requireID("info", args)
	if usageErr != nil {
		return usageErr
	}

	store, err := openStore(cfg)
	if err != nil {
		return failure("info", err)
	}
	rec, err := store.Load(id)
	if err != nil {
		return failure("info", err)
	}

	counts := make(map[string]int)
	for _, a := range rec.Actions {
		counts[string(a.Type)]++
	}
	sessions := export.GroupSessions(rec.Actions, rec.Duration)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("id:        %s\n", rec.ID))
	sb.WriteString(fmt.Sprintf("name:      %s\n", rec.Name))
	sb.WriteString(fmt.Sprintf("created:   %s\n", rec.CreatedAt))
	sb.WriteString(fmt.Sprintf("duration:  %s\n", util.FormatMs(rec.Duration)))
	sb.WriteString(fmt.Sprintf("actions:   %d\n", len(rec.Actions)))
	sb.WriteString(fmt.Sprintf("audio:     %v\n", rec.HasAudio()))
	sb.WriteString(fmt.Sprintf("sessions:  %d\n", len(sessions)))
	for _, s := range sessions {
		tool := s.Tool
		if tool == "" {
			tool = "(no tool)"
		}
		sb.WriteString(fmt.Sprintf("  %d. %s  %s - %s  %d actions\n",
			s.Index, tool, util.FormatMs(s.StartTimeOffset), util.FormatMs(s.EndTimeOffset), len(s.Actions)))
	}

	actionCounts := make(map[string]any, len(counts))
	for k, v := range counts {
		actionCounts[k] = v
	}

	return &output.Result{
		Success: true,
		Command: "info",
		Text:    sb.String(),
		Data: map[string]any{
			"id":            rec.ID,
			"name":          rec.Name,
			"created_at":    rec.CreatedAt,
			"duration":      rec.Duration,
			"action_counts": actionCounts,
			"audio":         rec.HasAudio(),
			"sessions":      len(sessions),
		},
	}
}
