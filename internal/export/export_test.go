package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/annotrail/annotrail/internal/audio"
	"github.com/annotrail/annotrail/internal/recording"
	"github.com/annotrail/annotrail/internal/timeline"
)

func pt(x, y float64) *timeline.Point { return &timeline.Point{X: x, Y: y} }

func sampleActions() []timeline.Action {
	return []timeline.Action{
		{Time: 0, Type: timeline.ActionToolActivated, Data: timeline.ActionData{Tool: "laser-pointer"}},
		{Time: 100, Type: timeline.ActionPointerMove, Data: timeline.ActionData{Point: pt(1, 1)}},
		{Time: 200, Type: timeline.ActionToolDeactivated},
		{Time: 400, Type: timeline.ActionToolActivated, Data: timeline.ActionData{Tool: "bounding-box"}},
		{Time: 500, Type: timeline.ActionBoxStart, Data: timeline.ActionData{Point: pt(10, 10)}},
		{Time: 600, Type: timeline.ActionBoxEnd, Data: timeline.ActionData{Point: pt(50, 40)}},
	}
}

func TestGroupSessionsByActivationSpans(t *testing.T) {
	t.Parallel()

	sessions := GroupSessions(sampleActions(), 1000)
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}

	first, second := sessions[0], sessions[1]
	if first.Tool != "laser-pointer" || first.StartTimeOffset != 0 || first.EndTimeOffset != 200 {
		t.Fatalf("first session = %+v, want laser-pointer [0, 200]", first)
	}
	if second.Tool != "bounding-box" || second.StartTimeOffset != 400 {
		t.Fatalf("second session = %+v, want bounding-box starting at 400", second)
	}
	// The last span is still open at the end of the recording.
	if second.EndTimeOffset != 1000 {
		t.Fatalf("open span end = %d, want recording duration 1000", second.EndTimeOffset)
	}
	if len(first.Actions) != 3 || len(second.Actions) != 3 {
		t.Fatalf("action counts = %d/%d, want 3/3", len(first.Actions), len(second.Actions))
	}
}

func TestGroupSessionsLeadingUntooledActions(t *testing.T) {
	t.Parallel()

	actions := []timeline.Action{
		{Time: 10, Type: timeline.ActionPointerMove, Data: timeline.ActionData{Point: pt(0, 0)}},
		{Time: 50, Type: timeline.ActionToolActivated, Data: timeline.ActionData{Tool: "laser-pointer"}},
	}
	sessions := GroupSessions(actions, 100)
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2 (leading untooled span + activation span)", len(sessions))
	}
	if sessions[0].Tool != "" || sessions[0].StartTimeOffset != 10 || sessions[0].EndTimeOffset != 50 {
		t.Fatalf("untooled session = %+v, want [10, 50] with no tool", sessions[0])
	}
}

func TestGroupSessionsEmpty(t *testing.T) {
	t.Parallel()

	if got := GroupSessions(nil, 100); got != nil {
		t.Fatalf("GroupSessions(nil) = %v, want nil", got)
	}
}

func bundleRecording(t *testing.T) *recording.Recording {
	t.Helper()
	// 1 second of audio at 1kHz mono: sample index == millisecond.
	samples := make([]int16, 1000)
	for i := range samples {
		samples[i] = int16(i)
	}
	asset, err := audio.EncodeWAV(samples, 1000, 1)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	return &recording.Recording{
		ID:        "export-test",
		SessionID: "00000000-0000-0000-0000-000000000001",
		CreatedAt: "2025-06-01T09:00:00Z",
		Duration:  1000,
		Actions:   sampleActions(),
		Audio:     asset,
	}
}

func TestWriteBundleProducesSessionTriples(t *testing.T) {
	t.Parallel()

	imagePath := filepath.Join(t.TempDir(), "frame.png")
	if err := os.WriteFile(imagePath, []byte("not-a-real-png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteBundle(&buf, bundleRecording(t), imagePath); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{
		"metadata.json",
		"sessions/000/metadata.json",
		"sessions/000/audio.wav",
		"sessions/000/image.png",
		"sessions/001/metadata.json",
		"sessions/001/audio.wav",
		"sessions/001/image.png",
	} {
		if !names[want] {
			t.Fatalf("bundle missing %s (has %v)", want, names)
		}
	}

	// Top-level metadata carries the grouped sessions.
	rc, err := zr.Open("metadata.json")
	if err != nil {
		t.Fatalf("open metadata: %v", err)
	}
	defer rc.Close()
	var meta BundleMetadata
	if err := json.NewDecoder(rc).Decode(&meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if meta.SessionCount != 2 || !meta.HasAudio || meta.Duration != 1000 {
		t.Fatalf("metadata = %+v, want 2 sessions with audio, duration 1000", meta)
	}
}

func TestWriteBundleSlicesAudioToSessionWindow(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteBundle(&buf, bundleRecording(t), ""); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}

	rc, err := zr.Open("sessions/000/audio.wav")
	if err != nil {
		t.Fatalf("open session audio: %v", err)
	}
	data := new(bytes.Buffer)
	if _, err := data.ReadFrom(rc); err != nil {
		t.Fatalf("read session audio: %v", err)
	}
	rc.Close()

	samples, rate, _, err := audio.DecodeWAV(data.Bytes())
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	// Session 0 spans [0, 200) ms at 1kHz mono: 200 samples, values 0..199.
	if rate != 1000 || len(samples) != 200 {
		t.Fatalf("segment = %d samples at %dHz, want 200 at 1000Hz", len(samples), rate)
	}
	if samples[0] != 0 || samples[199] != 199 {
		t.Fatalf("segment window wrong: first=%d last=%d, want 0 and 199", samples[0], samples[199])
	}
}

func TestWriteBundleFailsCleanlyOnBadImage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WriteBundle(&buf, bundleRecording(t), filepath.Join(t.TempDir(), "missing.png"))
	if err == nil {
		t.Fatal("WriteBundle succeeded with a missing image path")
	}
	if !strings.Contains(err.Error(), "export_image_read_failed") {
		t.Fatalf("error = %v, want export_image_read_failed", err)
	}
}

func TestWriteReportProducesPDF(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteReport(&buf, bundleRecording(t)); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("report output is not a PDF document")
	}
}

func TestSliceSamplesClamping(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 1, 2, 3, 4, 5, 6, 7}
	tests := []struct {
		name           string
		startMs, endMs int64
		want           int
	}{
		{"inside", 0, 4, 4},
		{"past end", 6, 100, 2},
		{"fully past", 100, 200, 0},
		{"inverted", 5, 2, 0},
	}
	for _, tt := range tests {
		got := sliceSamples(samples, 1000, 1, tt.startMs, tt.endMs)
		if len(got) != tt.want {
			t.Fatalf("%s: sliceSamples = %d samples, want %d", tt.name, len(got), tt.want)
		}
	}
}
