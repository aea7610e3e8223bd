package audio

import (
	"math"
	"testing"
)

func TestDecodePCM16_Values(t *testing.T) {
	// -32768, 0, 16384 as little-endian int16
	data := []byte{0x00, 0x80, 0x00, 0x00, 0x00, 0x40}
	samples := DecodePCM16(data)
	if len(samples) != 3 {
		t.Fatalf("Expected 3 samples, got %d", len(samples))
	}
	if samples[0] != -1.0 {
		t.Errorf("Expected -1.0, got %f", samples[0])
	}
	if samples[1] != 0.0 {
		t.Errorf("Expected 0.0, got %f", samples[1])
	}
	if samples[2] != 0.5 {
		t.Errorf("Expected 0.5, got %f", samples[2])
	}
}

func TestDecodePCM16_IgnoresTrailingOddByte(t *testing.T) {
	samples := DecodePCM16([]byte{0x00, 0x00, 0x7F})
	if len(samples) != 1 {
		t.Errorf("Expected 1 sample from 3 bytes, got %d", len(samples))
	}
}

func TestEncodePCM16_RoundTrip(t *testing.T) {
	in := []float32{-1.0, -0.5, 0.0, 0.25, 0.99}
	out := DecodePCM16(EncodePCM16(in))
	if len(out) != len(in) {
		t.Fatalf("Expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		if math.Abs(float64(out[i]-in[i])) > 1.0/32768.0 {
			t.Errorf("Sample %d: got %f, want %f", i, out[i], in[i])
		}
	}
}

func TestEncodePCM16_ClampsOutOfRange(t *testing.T) {
	out := EncodePCM16([]float32{2.0, -2.0})
	samples := DecodePCM16(out)
	if samples[0] < 0.99 {
		t.Errorf("Expected positive clamp near 1.0, got %f", samples[0])
	}
	if samples[1] != -1.0 {
		t.Errorf("Expected negative clamp at -1.0, got %f", samples[1])
	}
}

func TestRMS_Silence(t *testing.T) {
	if got := RMS(make([]float32, 1600)); got != 0.0 {
		t.Errorf("Expected RMS 0 for silence, got %f", got)
	}
	if got := RMS(nil); got != 0.0 {
		t.Errorf("Expected RMS 0 for empty input, got %f", got)
	}
}

func TestRMS_ConstantSignal(t *testing.T) {
	samples := make([]float32, 100)
	for i := range samples {
		samples[i] = 0.5
	}
	if got := RMS(samples); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("Expected RMS 0.5, got %f", got)
	}
}

func TestIsSilence(t *testing.T) {
	quiet := make([]float32, 100)
	for i := range quiet {
		quiet[i] = 0.001
	}
	loud := make([]float32, 100)
	for i := range loud {
		loud[i] = 0.3
	}

	if !IsSilence(quiet, 0.009) {
		t.Error("Expected quiet signal to be silence")
	}
	if IsSilence(loud, 0.009) {
		t.Error("Expected loud signal not to be silence")
	}
	// Threshold zero disables the gate entirely.
	if IsSilence(quiet, 0) {
		t.Error("Expected disabled gate to never report silence")
	}
}
