// ABOUTME: Test tone generator for the relay server
// ABOUTME: Generates a 440Hz sine wave as mono 16-bit PCM
package server

import (
	"math"
	"sync"
)

// ToneSource generates a 440Hz test tone
type ToneSource struct {
	sampleIndex uint64
	sampleMu    sync.Mutex
	frequency   float64
	sampleRate  int
}

// NewToneSource creates a new test tone generator
func NewToneSource(sampleRate int) *ToneSource {
	return &ToneSource{
		frequency:  440.0, // A4 note
		sampleRate: sampleRate,
	}
}

// Read fills samples with mono 16-bit PCM
func (s *ToneSource) Read(samples []int16) (int, error) {
	s.sampleMu.Lock()
	defer s.sampleMu.Unlock()

	for i := range samples {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.sampleRate)
		sample := math.Sin(2 * math.Pi * s.frequency * t)

		samples[i] = int16(sample * 32767.0 * 0.5) // 50% volume
	}

	s.sampleIndex += uint64(len(samples))

	return len(samples), nil
}

func (s *ToneSource) SampleRate() int { return s.sampleRate }
func (s *ToneSource) Close() error    { return nil }
