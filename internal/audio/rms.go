// Package audio holds the local audio analysis used during a live session:
// energy measurement, silence debouncing, the shared analysis engine and the
// pause alarm.
package audio

import "math"

// RMS returns the root-mean-square amplitude of buf. An empty buffer is 0.
func RMS(buf []float32) float64 {
	if len(buf) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range buf {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(buf)))
}

// PCM16ToFloat converts little-endian signed 16-bit mono PCM to samples in
// [-1, 1). A trailing odd byte is ignored.
func PCM16ToFloat(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/2)
	for i := range out {
		v := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		out[i] = float32(v) / 32768
	}
	return out
}
