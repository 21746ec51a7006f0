// wav.go — WAV encode/decode for the session audio asset.
// Encoding happens once, at capture stop; decoding is used by the export
// subsystem to slice per-session segments.
package audio

import (
	"bytes"
	"fmt"
	"io"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const bitDepth = 16

// writeSeekBuffer is an in-memory io.WriteSeeker. The wav encoder seeks
// back to patch chunk sizes on Close, so a plain bytes.Buffer won't do.
type writeSeekBuffer struct {
	buf []byte
	pos int
}

func (w *writeSeekBuffer) Write(p []byte) (int, error) {
	if need := w.pos + len(p); need > len(w.buf) {
		if need <= cap(w.buf) {
			w.buf = w.buf[:need]
		} else {
			grown := make([]byte, need, need*2)
			copy(grown, w.buf)
			w.buf = grown
		}
	}
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
	return len(p), nil
}

func (w *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = w.pos + int(offset)
	case io.SeekEnd:
		next = len(w.buf) + int(offset)
	default:
		return 0, fmt.Errorf("wav_seek_invalid: unknown whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("wav_seek_invalid: negative position %d", next)
	}
	w.pos = next
	return int64(next), nil
}

// EncodeWAV encodes interleaved 16-bit PCM samples into a WAV asset.
func EncodeWAV(samples []int16, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("wav_encode_invalid: sample rate %d, channels %d", sampleRate, channels)
	}
	out := &writeSeekBuffer{}
	enc := wav.NewEncoder(out, sampleRate, bitDepth, channels, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("wav_encode_failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("wav_encode_failed: %w", err)
	}
	return out.buf, nil
}

// DecodeWAV decodes a WAV asset back into interleaved 16-bit PCM samples
// plus its format. Used by export to slice per-session segments.
func DecodeWAV(asset []byte) ([]int16, int, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(asset))
	if !dec.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("wav_decode_invalid: not a valid WAV asset")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wav_decode_failed: %w", err)
	}
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples, buf.Format.SampleRate, buf.Format.NumChannels, nil
}
