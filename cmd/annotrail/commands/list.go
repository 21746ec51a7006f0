// list.go — The list command: enumerate saved recordings.
package commands

import (
	"fmt"
	"strings"

	"github.com/annotrail/annotrail/cmd/annotrail/config"
	"github.com/annotrail/annotrail/cmd/annotrail/output"
	"github.com/annotrail/annotrail/internal/util"
)

// List prints saved recordings, newest first.
func List(cfg config.Config, args []string) *output.Result {
	limit, _, _ := parseFlagInt(args, "--limit")

	store, err := openStore(cfg)
	if err != nil {
		return failure("list", err)
	}
	recs, err := store.List(limit)
	if err != nil {
		return failure("list", err)
	}

	var sb strings.Builder
	items := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		audio := "no audio"
		if r.HasAudio() {
			audio = "audio"
		}
		sb.WriteString(fmt.Sprintf("%s  %s  %d actions  %s\n",
			r.ID, util.FormatMs(r.Duration), len(r.Actions), audio))
		items = append(items, map[string]any{
			"id":       r.ID,
			"name":     r.Name,
			"duration": r.Duration,
			"actions":  len(r.Actions),
			"audio":    r.HasAudio(),
		})
	}
	if len(recs) == 0 {
		sb.WriteString("no recordings\n")
	}

	info := store.Storage()
	return &output.Result{
		Success: true,
		Command: "list",
		Text:    sb.String(),
		Data: map[string]any{
			"recordings":  items,
			"count":       len(recs),
			"used_bytes":  info.UsedBytes,
			"max_bytes":   info.MaxBytes,
			"warn_active": info.WarningLevel,
		},
	}
}
