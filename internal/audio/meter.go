// meter.go — RMS volume metering over recent capture chunks.
package audio

import "math"

// rms computes root-mean-square amplitude of a PCM chunk, normalized to
// [0, 1]. An empty chunk reports silence.
func rms(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
