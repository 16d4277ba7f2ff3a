// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Opus packets to mono float samples
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/relay-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrameSamples is the largest Opus frame (120ms at 48kHz) per channel.
const maxOpusFrameSamples = 5760

// OpusDecoder decodes Opus packets, keeping the reference channel.
type OpusDecoder struct {
	decoder  *opus.Decoder
	channels int
	pcm      []float32
}

// NewOpus creates a new Opus decoder.
func NewOpus(format audio.Format) (Decoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	channels := format.Channels
	if channels == 0 {
		channels = 1
	}

	dec, err := opus.NewDecoder(format.SampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		decoder:  dec,
		channels: channels,
		pcm:      make([]float32, maxOpusFrameSamples*channels),
	}, nil
}

// Decode converts one Opus packet to mono float samples.
func (d *OpusDecoder) Decode(data []byte) ([]float32, error) {
	n, err := d.decoder.DecodeFloat32(data, d.pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	// Take the first channel of each interleaved frame.
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		samples[i] = d.pcm[i*d.channels]
	}

	return samples, nil
}

// Close releases decoder resources.
func (d *OpusDecoder) Close() error {
	return nil
}
