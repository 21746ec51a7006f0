// store.go — Disk persistence and storage accounting for recordings.
// Layout: {baseDir}/{id}/recording.json plus audio.wav when the session
// captured audio. The JSON on disk has the audio stripped; Load recombines
// the two files into one Recording.
package recording

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/annotrail/annotrail/internal/util"
)

const (
	storageMax      = 1024 * 1024 * 1024 // 1GB max storage
	storageWarnAt   = 800 * 1024 * 1024  // 800MB warning threshold (80%)
	recordingFile   = "recording.json"
	audioAssetFile  = "audio.wav"
)

// StorageInfo summarizes recording storage usage.
type StorageInfo struct {
	UsedBytes      int64   `json:"used_bytes"`
	MaxBytes       int64   `json:"max_bytes"`
	WarningBytes   int64   `json:"warning_bytes"`
	UsedPercent    float64 `json:"used_percent"`
	WarningLevel   bool    `json:"warning_level"`
	RecordingCount int     `json:"recording_count"`
}

// ValidateID rejects recording IDs containing path traversal sequences.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("recording_id_empty: Recording ID must not be empty")
	}
	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("recording_id_invalid: Recording ID contains illegal characters")
	}
	// After cleaning, the ID must be a single path component
	if filepath.Base(id) != id {
		return fmt.Errorf("recording_id_invalid: Recording ID must be a single directory name")
	}
	return nil
}

// Store persists recordings under a base directory with a storage quota.
// Owns its own sync.Mutex.
type Store struct {
	mu          sync.Mutex
	baseDir     string
	storageUsed int64
}

// DefaultDir returns ~/.annotrail/recordings.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot_determine_recordings_dir: %w", err)
	}
	return filepath.Join(home, ".annotrail", "recordings"), nil
}

// NewStore creates a Store rooted at baseDir, creating the directory and
// scanning existing recordings for storage accounting.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("recordings_dir_create_failed: %w", err)
	}
	s := &Store{baseDir: baseDir}
	s.storageUsed = s.scanUsage()
	return s, nil
}

// scanUsage sums the size of all files under baseDir.
func (s *Store) scanUsage() int64 {
	var used int64
	_ = filepath.Walk(s.baseDir, func(_ string, info os.FileInfo, err error) error {
		if err == nil && info != nil && !info.IsDir() {
			used += info.Size()
		}
		return nil
	})
	return used
}

// Save persists a recording to disk. Fails without writing anything when
// the storage quota is exhausted; warns on stderr at the 80% threshold.
func (s *Store) Save(rec *Recording) error {
	if rec == nil {
		return fmt.Errorf("recording_nil: Nothing to save")
	}
	if err := ValidateID(rec.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storageUsed >= storageMax {
		return fmt.Errorf("recording_storage_full: Recording storage at capacity (1GB). Please delete old recordings")
	}
	if s.storageUsed >= storageWarnAt {
		fmt.Fprintf(os.Stderr, "[WARNING] recording_storage_warning: Recording storage at 80%% (%d bytes / %d bytes)\n",
			s.storageUsed, storageMax)
	}

	dir := filepath.Join(s.baseDir, rec.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("recording_save_failed: %w", err)
	}

	// Strip the audio asset out of the JSON document; it lives alongside.
	onDisk := *rec
	onDisk.Audio = nil
	data, err := json.MarshalIndent(&onDisk, "", "  ")
	if err != nil {
		return fmt.Errorf("recording_save_failed: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, recordingFile), data, 0o644); err != nil {
		return fmt.Errorf("recording_save_failed: %w", err)
	}
	s.storageUsed += int64(len(data))

	if rec.HasAudio() {
		if err := os.WriteFile(filepath.Join(dir, audioAssetFile), rec.Audio, 0o644); err != nil {
			return fmt.Errorf("recording_save_failed: %w", err)
		}
		s.storageUsed += int64(len(rec.Audio))
	}
	return nil
}

// Load reads a recording from disk, recombining the JSON document with
// its audio asset when present.
func (s *Store) Load(id string) (*Recording, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.baseDir, id)
	data, err := os.ReadFile(filepath.Join(dir, recordingFile))
	if err != nil {
		return nil, fmt.Errorf("recording_not_found: No recording with id %s: %w", id, err)
	}
	rec, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if audioData, err := os.ReadFile(filepath.Join(dir, audioAssetFile)); err == nil {
		rec.Audio = audioData
	}
	return rec, nil
}

// List returns stored recordings newest first, capped at limit when
// limit > 0. Audio assets are not loaded; entries are metadata only.
func (s *Store) List(limit int) ([]Recording, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("recordings_list_failed: %w", err)
	}
	out := make([]Recording, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, e.Name(), recordingFile))
		if err != nil {
			continue // not a recording dir
		}
		rec, err := Unmarshal(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[annotrail] skipping unreadable recording %s: %v\n", e.Name(), err)
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return util.ParseTimestamp(out[i].CreatedAt).After(util.ParseTimestamp(out[j].CreatedAt))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a stored recording and updates storage accounting.
func (s *Store) Delete(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.baseDir, id)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("recording_not_found: No recording with id %s", id)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("recording_delete_failed: %w", err)
	}
	s.storageUsed = s.scanUsage()
	return nil
}

// Storage returns current usage against the quota.
func (s *Store) Storage() StorageInfo {
	s.mu.Lock()
	used := s.storageUsed
	s.mu.Unlock()

	count := 0
	if entries, err := os.ReadDir(s.baseDir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				count++
			}
		}
	}
	return StorageInfo{
		UsedBytes:      used,
		MaxBytes:       storageMax,
		WarningBytes:   storageWarnAt,
		UsedPercent:    float64(used) / float64(storageMax) * 100,
		WarningLevel:   used >= storageWarnAt,
		RecordingCount: count,
	}
}
