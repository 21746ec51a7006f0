// messages.go — Wire protocol between the browser page and the daemon.
// One JSON envelope both directions; the Type field selects the variant.
// PCM chunks travel as base64 little-endian 16-bit samples.
package bridge

import (
	"encoding/binary"
	"fmt"

	"github.com/annotrail/annotrail/internal/player"
	"github.com/annotrail/annotrail/internal/recorder"
	"github.com/annotrail/annotrail/internal/timeline"
)

// Inbound message types (browser → daemon).
const (
	MsgRecordStart  = "record-start"
	MsgRecordPause  = "record-pause"
	MsgRecordResume = "record-resume"
	MsgRecordStop   = "record-stop"
	MsgAction       = "action"
	MsgAudioChunk   = "audio-chunk"
	MsgLoad         = "load"
	MsgPlay         = "play"
	MsgPause        = "pause"
	MsgStop         = "stop"
	MsgZoom         = "zoom"
	MsgAudioEnded   = "audio-ended"
)

// Outbound message types (daemon → browser).
const (
	MsgRecorderStatus = "recorder-status"
	MsgPlayerStatus   = "player-status"
	MsgReplayAction   = "replay-action"
	MsgRecordingSaved = "recording-saved"
	MsgAudioPlay      = "audio-play"
	MsgAudioPause     = "audio-pause"
	MsgAudioResume    = "audio-resume"
	MsgAudioStop      = "audio-stop"
	MsgError          = "error"
)

// ActionPayload is a captured or replayed annotation event on the wire.
type ActionPayload struct {
	Type string              `json:"type"`
	Data timeline.ActionData `json:"data"`
}

// Message is the wire envelope. Only the fields relevant to Type are set.
type Message struct {
	Type string `json:"type"`

	// Inbound fields.
	Name   string         `json:"name,omitempty"`   // record-start: recording name
	Audio  bool           `json:"audio,omitempty"`  // record-start: page obtained a microphone grant
	ID     string         `json:"id,omitempty"`     // load / recording-saved
	Action *ActionPayload `json:"action,omitempty"` // action / replay-action
	Chunk  []byte         `json:"chunk,omitempty"`  // audio-chunk: base64 LE int16 PCM
	Zoom   float64        `json:"zoom,omitempty"`   // zoom
	Error  string         `json:"error,omitempty"`  // audio-ended / error

	// Outbound fields.
	Recorder *recorder.Status `json:"recorder,omitempty"`
	Player   *player.Status   `json:"player,omitempty"`
	Asset    []byte           `json:"asset,omitempty"` // audio-play: WAV asset
}

// DecodeChunk converts a wire PCM chunk into interleaved int16 samples.
func DecodeChunk(chunk []byte) ([]int16, error) {
	if len(chunk)%2 != 0 {
		return nil, fmt.Errorf("audio_chunk_invalid: odd byte count %d", len(chunk))
	}
	samples := make([]int16, len(chunk)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(chunk[i*2:]))
	}
	return samples, nil
}

// EncodeChunk converts samples into the wire PCM representation.
func EncodeChunk(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
