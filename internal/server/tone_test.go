// ABOUTME: Tests for the test tone generator
// ABOUTME: Verifies waveform continuity and amplitude bounds
package server

import (
	"math"
	"testing"
)

func TestToneSourceAmplitude(t *testing.T) {
	tone := NewToneSource(48000)
	samples := make([]int16, 960)

	n, err := tone.Read(samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 960 {
		t.Errorf("expected 960 samples, got %d", n)
	}

	var peak int16
	for _, v := range samples {
		if v > peak {
			peak = v
		}
	}
	// Half-amplitude 440Hz over 20ms covers several full cycles, so the
	// peak has to land near 16383.
	if peak < 16000 || peak > 16384 {
		t.Errorf("expected peak near 16383, got %d", peak)
	}
}

func TestToneSourceContinuity(t *testing.T) {
	tone := NewToneSource(48000)
	first := make([]int16, 480)
	second := make([]int16, 480)
	tone.Read(first)
	tone.Read(second)

	// The second chunk must continue the phase where the first left off.
	expected := math.Sin(2*math.Pi*440.0*float64(480)/48000.0) * 32767.0 * 0.5
	if diff := math.Abs(float64(second[0]) - expected); diff > 1 {
		t.Errorf("phase discontinuity: expected %f, got %d", expected, second[0])
	}
}
