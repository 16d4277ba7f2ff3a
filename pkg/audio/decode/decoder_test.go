// ABOUTME: Tests for the decoder factory
// ABOUTME: Verifies codec dispatch and unsupported codec errors
package decode

import (
	"bytes"
	"testing"

	"github.com/Resonate-Protocol/relay-go/pkg/audio"
)

func TestNewDispatchesPCM(t *testing.T) {
	dec, err := New(audio.Format{Codec: "pcm", BitDepth: 16, Channels: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := dec.(*PCMDecoder); !ok {
		t.Errorf("expected *PCMDecoder, got %T", dec)
	}
}

func TestNewRejectsUnknownCodec(t *testing.T) {
	if _, err := New(audio.Format{Codec: "vorbis"}); err == nil {
		t.Error("expected error for unknown codec")
	}
}

func TestNewMP3ReaderRejectsGarbage(t *testing.T) {
	if _, err := NewMP3Reader(bytes.NewReader([]byte("not an mp3 stream"))); err == nil {
		t.Error("expected error for invalid mp3 data")
	}
}

func TestNewFLACReaderRejectsGarbage(t *testing.T) {
	if _, err := NewFLACReader(bytes.NewReader([]byte("not a flac stream"))); err == nil {
		t.Error("expected error for invalid flac data")
	}
}
