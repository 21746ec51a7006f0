// bundle.go — Zip bundle export: per-session audio/image/metadata triples.
// Each grouped session gets its own directory inside the archive with the
// audio segment sliced from the decoded asset, a copy of the annotated
// base image, and a metadata document carrying the time window and
// events. A failed export aborts without touching prior state.
package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/annotrail/annotrail/internal/audio"
	"github.com/annotrail/annotrail/internal/recording"
)

// BundleMetadata is the top-level metadata.json inside the archive.
type BundleMetadata struct {
	RecordingID  string    `json:"recording_id"`
	SessionID    string    `json:"session_id,omitempty"`
	Name         string    `json:"name,omitempty"`
	CreatedAt    string    `json:"created_at"`
	Duration     int64     `json:"duration"`
	SessionCount int       `json:"session_count"`
	HasAudio     bool      `json:"has_audio"`
	Sessions     []Session `json:"sessions"`
}

// WriteBundle writes the export archive for a recording to w. imagePath
// optionally names the annotated base image to copy into each session
// directory; empty means no image triple member.
func WriteBundle(w io.Writer, rec *recording.Recording, imagePath string) error {
	if rec == nil {
		return fmt.Errorf("export_no_recording: Nothing to export")
	}

	sessions := GroupSessions(rec.Actions, rec.Duration)

	var samples []int16
	var rate, channels int
	if rec.HasAudio() {
		var err error
		samples, rate, channels, err = audio.DecodeWAV(rec.Audio)
		if err != nil {
			return fmt.Errorf("export_audio_decode_failed: %w", err)
		}
	}

	var image []byte
	if imagePath != "" {
		var err error
		image, err = os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("export_image_read_failed: %w", err)
		}
	}

	zw := zip.NewWriter(w)

	meta := BundleMetadata{
		RecordingID:  rec.ID,
		SessionID:    rec.SessionID,
		Name:         rec.Name,
		CreatedAt:    rec.CreatedAt,
		Duration:     rec.Duration,
		SessionCount: len(sessions),
		HasAudio:     rec.HasAudio(),
		Sessions:     sessions,
	}
	if err := writeZipJSON(zw, "metadata.json", meta); err != nil {
		return err
	}

	for _, s := range sessions {
		dir := fmt.Sprintf("sessions/%03d", s.Index)

		if err := writeZipJSON(zw, dir+"/metadata.json", s); err != nil {
			return err
		}
		if samples != nil {
			segment := sliceSamples(samples, rate, channels, s.StartTimeOffset, s.EndTimeOffset)
			wav, err := audio.EncodeWAV(segment, rate, channels)
			if err != nil {
				return fmt.Errorf("export_audio_encode_failed: session %d: %w", s.Index, err)
			}
			if err := writeZipFile(zw, dir+"/audio.wav", wav); err != nil {
				return err
			}
		}
		if image != nil {
			if err := writeZipFile(zw, dir+"/image"+filepath.Ext(imagePath), image); err != nil {
				return err
			}
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("export_zip_failed: %w", err)
	}
	return nil
}

// sliceSamples cuts the interleaved sample buffer to the [startMs, endMs)
// window, clamped to the asset bounds and aligned to whole frames.
func sliceSamples(samples []int16, rate, channels int, startMs, endMs int64) []int16 {
	if endMs < startMs {
		endMs = startMs
	}
	frame := int64(channels)
	start := startMs * int64(rate) / 1000 * frame
	end := endMs * int64(rate) / 1000 * frame
	total := int64(len(samples))
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return samples[start:end]
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("export_zip_failed: %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("export_zip_failed: %s: %w", name, err)
	}
	return nil
}

func writeZipJSON(zw *zip.Writer, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("export_encode_failed: %s: %w", name, err)
	}
	return writeZipFile(zw, name, data)
}
