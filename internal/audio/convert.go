package audio

import (
	"encoding/binary"
	"math"
)

// DecodePCM16 converts little-endian 16-bit signed PCM bytes into normalized
// float32 samples in [-1, 1). A trailing odd byte is ignored; callers that
// receive fragmented streams must hold it back themselves.
func DecodePCM16(data []byte) []float32 {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		samples[i] = float32(s) / 32768.0
	}
	return samples
}

// EncodePCM16 converts normalized float32 samples back into little-endian
// 16-bit signed PCM bytes, clamping out-of-range values.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := s * 32768.0
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(int16(v)))
	}
	return out
}

// RMS returns the root mean square of normalized samples, on the same [0, 1]
// scale. Useful for detecting audio levels and silence.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// IsSilence reports whether the samples fall below the RMS threshold. A
// non-positive threshold disables the gate.
func IsSilence(samples []float32, threshold float64) bool {
	if threshold <= 0 {
		return false
	}
	return RMS(samples) < threshold
}
