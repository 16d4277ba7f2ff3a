// ABOUTME: Decoder interfaces and codec factory
// ABOUTME: Common interfaces for chunk decoders and stream sample readers
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/relay-go/pkg/audio"
)

// Decoder decodes discrete encoded chunks to normalized mono float samples.
type Decoder interface {
	// Decode converts one encoded chunk to mono samples in [-1.0, 1.0].
	Decode(data []byte) ([]float32, error)

	// Close releases decoder resources.
	Close() error
}

// SampleReader pulls decoded mono samples from a contiguous stream.
type SampleReader interface {
	// ReadSamples fills dst with mono samples and returns how many were
	// read. Returns io.EOF at end of stream.
	ReadSamples(dst []float32) (int, error)

	// SampleRate returns the stream's sample rate in Hz.
	SampleRate() int
}

// New creates a chunk decoder for the specified format.
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
