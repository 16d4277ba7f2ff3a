// ABOUTME: Tests for the output host layer
// ABOUTME: Verifies interface compliance, volume math and the oto reader
package output

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/Resonate-Protocol/relay-go/pkg/audio"
	"github.com/Resonate-Protocol/relay-go/pkg/relay"
)

func TestHostsImplementInterface(t *testing.T) {
	var _ Host = (*Malgo)(nil)
	var _ Host = (*Oto)(nil)
	var _ Host = (*PortAudio)(nil)
	var _ Volumer = (*Malgo)(nil)
	var _ Volumer = (*Oto)(nil)
}

func TestNewHostDispatch(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"", false},
		{"malgo", false},
		{"oto", false},
		{"portaudio", false},
		{"pulse", true},
	}

	for _, tt := range tests {
		_, err := NewHost(tt.backend)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewHost(%q): err = %v, wantErr = %v", tt.backend, err, tt.wantErr)
		}
	}
}

func TestVolumeMultiplier(t *testing.T) {
	tests := []struct {
		volume   int
		muted    bool
		expected float32
	}{
		{100, false, 1.0},
		{50, false, 0.5},
		{0, false, 0.0},
		{80, true, 0.0}, // Muted overrides volume
		{150, false, 1.0},
		{-10, false, 0.0},
	}

	for _, tt := range tests {
		if got := volumeMultiplier(tt.volume, tt.muted); got != tt.expected {
			t.Errorf("volume=%d, muted=%v: expected %f, got %f",
				tt.volume, tt.muted, tt.expected, got)
		}
	}
}

func TestRenderReaderProducesPCM(t *testing.T) {
	stream, err := relay.New(relay.Config{
		CapacitySamples:   64,
		Channels:          2,
		FramesPerCallback: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stream.Ingest([]float32{0.5, -0.5})

	reader := &renderReader{
		stream:     stream,
		channels:   2,
		scratch:    make([]float32, 8),
		multiplier: func() float32 { return 1.0 },
	}

	// Two frames, two channels, two bytes per sample.
	p := make([]byte, 8)
	n, err := reader.Read(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 8 {
		t.Fatalf("expected 8 bytes, got %d", n)
	}

	want := []int16{
		audio.SampleToInt16(0.5), audio.SampleToInt16(0.5),
		audio.SampleToInt16(-0.5), audio.SampleToInt16(-0.5),
	}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(p[i*2:]))
		if got != w {
			t.Errorf("sample %d: expected %d, got %d", i, w, got)
		}
	}
}

func TestRenderReaderEOFAfterStreamClose(t *testing.T) {
	stream, _ := relay.New(relay.Config{CapacitySamples: 64, Channels: 2})
	reader := &renderReader{
		stream:     stream,
		channels:   2,
		scratch:    make([]float32, 8),
		multiplier: func() float32 { return 1.0 },
	}

	stream.Close()

	if _, err := reader.Read(make([]byte, 8)); err != io.EOF {
		t.Errorf("expected io.EOF after stream close, got %v", err)
	}
}

func TestRenderReaderCapsAtQuantum(t *testing.T) {
	stream, _ := relay.New(relay.Config{CapacitySamples: 64, Channels: 1, FramesPerCallback: 2})
	reader := &renderReader{
		stream:     stream,
		channels:   1,
		scratch:    make([]float32, 2),
		multiplier: func() float32 { return 1.0 },
	}

	// A large pull still renders at most one quantum per Read.
	n, err := reader.Read(make([]byte, 1024))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 { // 2 frames of mono s16
		t.Errorf("expected 4 bytes, got %d", n)
	}
}
