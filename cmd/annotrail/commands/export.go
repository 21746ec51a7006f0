// export.go — The export command: zip bundles and PDF reports.
package commands

import (
	"fmt"
	"os"

	"github.com/annotrail/annotrail/cmd/annotrail/config"
	"github.com/annotrail/annotrail/cmd/annotrail/output"
	"github.com/annotrail/annotrail/internal/export"
)

// Export writes a recording either as a zip bundle of per-session
// artifacts (--image required) or as a PDF report (--pdf).
func Export(cfg config.Config, args []string) *output.Result {
	id, remaining, usageErr := requireID("export", args)
	if usageErr != nil {
		return usageErr
	}

	outPath, remaining := parseFlag(remaining, "--out")
	imagePath, remaining := parseFlag(remaining, "--image")
	pdf, remaining := parseFlagBool(remaining, "--pdf")
	_ = remaining

	if outPath == "" {
		return usageFailure("export", "missing --out <path>")
	}
	if pdf && imagePath != "" {
		return usageFailure("export", "--pdf and --image are mutually exclusive")
	}
	if !pdf && imagePath == "" {
		return usageFailure("export", "missing --image <path> (or use --pdf)")
	}

	store, err := openStore(cfg)
	if err != nil {
		return failure("export", err)
	}
	rec, err := store.Load(id)
	if err != nil {
		return failure("export", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return failure("export", fmt.Errorf("export_create_failed: Could not create %s: %w", outPath, err))
	}

	if pdf {
		err = export.WriteReport(f, rec)
	} else {
		err = export.WriteBundle(f, rec, imagePath)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// Don't leave a half-written artifact behind.
		_ = os.Remove(outPath)
		return failure("export", err)
	}

	kind := "bundle"
	if pdf {
		kind = "pdf"
	}
	return &output.Result{
		Success: true,
		Command: "export",
		Data: map[string]any{
			"id":   rec.ID,
			"kind": kind,
			"out":  outPath,
		},
	}
}
