package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/annotrail/annotrail/cmd/annotrail/config"
	"github.com/annotrail/annotrail/internal/recording"
	"github.com/annotrail/annotrail/internal/timeline"
	"github.com/annotrail/annotrail/internal/tools"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Port:     8917,
		Format:   "human",
		DataDir:  t.TempDir(),
		Discover: false,
	}
}

func pt(x, y float64) *timeline.Point { return &timeline.Point{X: x, Y: y} }

func seedRecording(t *testing.T, cfg config.Config, id string) *recording.Recording {
	t.Helper()
	rec := &recording.Recording{
		ID:       id,
		Name:     "seed",
		Duration: 1000,
		Actions: []timeline.Action{
			{Time: 0, Type: timeline.ActionToolActivated, Data: timeline.ActionData{Tool: tools.ToolBoundingBox}},
			{Time: 100, Type: timeline.ActionBoxStart, Data: timeline.ActionData{Point: pt(10, 20)}},
			{Time: 200, Type: timeline.ActionBoxUpdate, Data: timeline.ActionData{Point: pt(60, 50)}},
			{Time: 300, Type: timeline.ActionBoxEnd, Data: timeline.ActionData{Point: pt(110, 80)}},
			{Time: 400, Type: timeline.ActionToolDeactivated},
			{Time: 500, Type: timeline.ActionToolActivated, Data: timeline.ActionData{Tool: tools.ToolLaserPointer}},
			{Time: 600, Type: timeline.ActionPointerMove, Data: timeline.ActionData{Point: pt(5, 5)}},
			{Time: 700, Type: timeline.ActionPointerMove, Data: timeline.ActionData{Point: pt(6, 6)}},
		},
	}
	store, err := recording.NewStore(cfg.DataDir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Save(rec); err != nil {
		t.Fatalf("seed save: %v", err)
	}
	return rec
}

func TestListEmptyStore(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	result := List(cfg, nil)
	if !result.Success {
		t.Fatalf("list failed: %s", result.Error)
	}
	if result.Data["count"] != 0 {
		t.Errorf("count = %v, want 0", result.Data["count"])
	}
	if !strings.Contains(result.Text, "no recordings") {
		t.Errorf("text = %q", result.Text)
	}
}

func TestListShowsRecordings(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	rec := seedRecording(t, cfg, "seed-20240101T120000-000000000Z")

	result := List(cfg, nil)
	if !result.Success {
		t.Fatalf("list failed: %s", result.Error)
	}
	if result.Data["count"] != 1 {
		t.Errorf("count = %v, want 1", result.Data["count"])
	}
	if !strings.Contains(result.Text, rec.ID) {
		t.Errorf("listing missing recording ID: %q", result.Text)
	}
}

func TestInfoRequiresID(t *testing.T) {
	t.Parallel()

	result := Info(testConfig(t), nil)
	if result.Success || !result.Usage {
		t.Fatalf("expected usage failure, got %+v", result)
	}
}

func TestInfoShowsSessions(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	rec := seedRecording(t, cfg, "seed-20240101T120001-000000000Z")

	result := Info(cfg, []string{"--id", rec.ID})
	if !result.Success {
		t.Fatalf("info failed: %s", result.Error)
	}
	if result.Data["sessions"] != 2 {
		t.Errorf("sessions = %v, want 2", result.Data["sessions"])
	}
	if !strings.Contains(result.Text, tools.ToolBoundingBox) || !strings.Contains(result.Text, tools.ToolLaserPointer) {
		t.Errorf("session listing incomplete: %q", result.Text)
	}
}

func TestReplayReconstructsAnnotations(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	rec := seedRecording(t, cfg, "seed-20240101T120002-000000000Z")

	result := Replay(cfg, []string{"--id", rec.ID})
	if !result.Success {
		t.Fatalf("replay failed: %s", result.Error)
	}
	if result.Data["trail_points"] != 2 {
		t.Errorf("trail_points = %v, want 2", result.Data["trail_points"])
	}
	boxData, ok := result.Data["boxes"].([]map[string]any)
	if !ok || len(boxData) != 1 {
		t.Fatalf("boxes = %v, want 1 box", result.Data["boxes"])
	}
	if boxData[0]["x"] != 10.0 || boxData[0]["w"] != 100.0 {
		t.Errorf("box rect = %v", boxData[0])
	}
}

func TestReplayZoomScalesBoxes(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	rec := seedRecording(t, cfg, "seed-20240101T120003-000000000Z")

	result := Replay(cfg, []string{"--id", rec.ID, "--zoom", "2"})
	if !result.Success {
		t.Fatalf("replay failed: %s", result.Error)
	}
	boxData := result.Data["boxes"].([]map[string]any)
	if boxData[0]["x"] != 20.0 || boxData[0]["w"] != 200.0 {
		t.Errorf("zoomed box rect = %v", boxData[0])
	}
}

func TestReplayMissingRecording(t *testing.T) {
	t.Parallel()

	result := Replay(testConfig(t), []string{"--id", "nope-20240101T120000-000000000Z"})
	if result.Success {
		t.Fatal("expected failure on missing recording")
	}
	if result.Usage {
		t.Error("missing recording is an error, not a usage error")
	}
}

func TestExportBundle(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	rec := seedRecording(t, cfg, "seed-20240101T120004-000000000Z")

	dir := t.TempDir()
	imagePath := filepath.Join(dir, "page.png")
	if err := os.WriteFile(imagePath, []byte("not-a-real-png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	outPath := filepath.Join(dir, "bundle.zip")

	result := Export(cfg, []string{"--id", rec.ID, "--image", imagePath, "--out", outPath})
	if !result.Success {
		t.Fatalf("export failed: %s", result.Error)
	}
	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		t.Fatalf("bundle not written: %v", err)
	}
}

func TestExportPDF(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	rec := seedRecording(t, cfg, "seed-20240101T120005-000000000Z")

	outPath := filepath.Join(t.TempDir(), "report.pdf")
	result := Export(cfg, []string{"--id", rec.ID, "--pdf", "--out", outPath})
	if !result.Success {
		t.Fatalf("export failed: %s", result.Error)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Error("report is not a PDF")
	}
}

func TestExportUsageErrors(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	tests := []struct {
		name string
		args []string
	}{
		{"no id", []string{"--out", "x.zip"}},
		{"no out", []string{"--id", "a-20240101T120000-000000000Z", "--image", "p.png"}},
		{"no image or pdf", []string{"--id", "a-20240101T120000-000000000Z", "--out", "x.zip"}},
		{"pdf and image", []string{"--id", "a-20240101T120000-000000000Z", "--out", "x", "--pdf", "--image", "p.png"}},
		{"traversal id", []string{"--id", "../evil", "--out", "x.zip", "--pdf"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := Export(cfg, tt.args)
			if result.Success || !result.Usage {
				t.Errorf("expected usage failure, got %+v", result)
			}
		})
	}
}

func TestExportFailureRemovesArtifact(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	rec := seedRecording(t, cfg, "seed-20240101T120006-000000000Z")

	dir := t.TempDir()
	outPath := filepath.Join(dir, "bundle.zip")
	result := Export(cfg, []string{"--id", rec.ID, "--image", filepath.Join(dir, "missing.png"), "--out", outPath})
	if result.Success {
		t.Fatal("expected failure on missing image")
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Error("failed export left a partial artifact")
	}
}
