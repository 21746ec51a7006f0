// errors.go — Typed failure taxonomy for audio capture.
// Device denial and encoder absence are recoverable (the recorder degrades
// to no-audio mode); device loss mid-recording ends capture with whatever
// partial asset exists.
package audio

import "errors"

var (
	// ErrDeviceDenied means the input device grant was refused. Recording
	// proceeds without audio.
	ErrDeviceDenied = errors.New("audio_device_denied: microphone access was denied")

	// ErrEncoderUnavailable means no usable encoder exists for the
	// requested format. Recording proceeds without audio.
	ErrEncoderUnavailable = errors.New("audio_encoder_unavailable: no encoder available for the requested format")

	// ErrDeviceLost means the input device disappeared mid-capture. The
	// samples captured so far are kept as a partial asset.
	ErrDeviceLost = errors.New("audio_device_lost: input device disconnected during capture")

	// ErrCaptureStopped is returned by Push/Read paths after Stop.
	ErrCaptureStopped = errors.New("audio_capture_stopped: capture has already been stopped")
)

// Recoverable reports whether err allows the recording session to continue
// in degraded no-audio mode.
func Recoverable(err error) bool {
	return errors.Is(err, ErrDeviceDenied) || errors.Is(err, ErrEncoderUnavailable)
}
