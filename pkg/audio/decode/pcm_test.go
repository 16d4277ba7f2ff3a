// ABOUTME: Tests for the PCM chunk decoder
// ABOUTME: Verifies 16/24-bit decoding and reference channel selection
package decode

import (
	"encoding/binary"
	"testing"

	"github.com/Resonate-Protocol/relay-go/pkg/audio"
)

func TestNewPCMValidation(t *testing.T) {
	if _, err := NewPCM(audio.Format{Codec: "opus"}); err == nil {
		t.Error("expected error for wrong codec")
	}
	if _, err := NewPCM(audio.Format{Codec: "pcm", BitDepth: 8}); err == nil {
		t.Error("expected error for unsupported bit depth")
	}
	if _, err := NewPCM(audio.Format{Codec: "pcm", BitDepth: 16, Channels: 1}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPCMDecode16BitMono(t *testing.T) {
	dec, _ := NewPCM(audio.Format{Codec: "pcm", BitDepth: 16, Channels: 1})

	in := []int16{0, 16384, -16384, 32767}
	data := make([]byte, len(in)*2)
	for i, v := range in {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}

	samples, err := dec.Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(samples))
	}

	for i, v := range in {
		want := audio.SampleFromInt16(v)
		if samples[i] != want {
			t.Errorf("sample %d: expected %f, got %f", i, want, samples[i])
		}
	}
}

func TestPCMDecodeTakesReferenceChannel(t *testing.T) {
	dec, _ := NewPCM(audio.Format{Codec: "pcm", BitDepth: 16, Channels: 2})

	// Two stereo frames: left channel carries the signal.
	frames := [][2]int16{{1000, -9999}, {-2000, 9999}}
	data := make([]byte, len(frames)*4)
	for i, f := range frames {
		binary.LittleEndian.PutUint16(data[i*4:], uint16(f[0]))
		binary.LittleEndian.PutUint16(data[i*4+2:], uint16(f[1]))
	}

	samples, err := dec.Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}

	for i, f := range frames {
		want := audio.SampleFromInt16(f[0])
		if samples[i] != want {
			t.Errorf("frame %d: expected reference channel %f, got %f", i, want, samples[i])
		}
	}
}

func TestPCMDecode24Bit(t *testing.T) {
	dec, _ := NewPCM(audio.Format{Codec: "pcm", BitDepth: 24, Channels: 1})

	data := []byte{0x00, 0x00, 0x40} // 0x400000 = half scale
	samples, err := dec.Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if samples[0] != 0.5 {
		t.Errorf("expected 0.5, got %f", samples[0])
	}
}
