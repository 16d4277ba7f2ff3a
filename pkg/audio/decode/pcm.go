// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 16-bit and 24-bit interleaved PCM to mono float samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/relay-go/pkg/audio"
)

// PCMDecoder decodes raw interleaved PCM, keeping the reference channel.
type PCMDecoder struct {
	bitDepth int
	channels int
}

// NewPCM creates a new PCM decoder.
func NewPCM(format audio.Format) (Decoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	channels := format.Channels
	if channels == 0 {
		channels = 1
	}

	return &PCMDecoder{
		bitDepth: format.BitDepth,
		channels: channels,
	}, nil
}

// Decode converts interleaved PCM bytes to mono float samples, taking the
// first channel of each frame.
func (d *PCMDecoder) Decode(data []byte) ([]float32, error) {
	sampleBytes := d.bitDepth / 8
	frameBytes := sampleBytes * d.channels
	numFrames := len(data) / frameBytes

	samples := make([]float32, numFrames)
	if d.bitDepth == 24 {
		for i := 0; i < numFrames; i++ {
			off := i * frameBytes
			b := [3]byte{data[off], data[off+1], data[off+2]}
			samples[i] = audio.SampleFrom24Bit(b)
		}
	} else {
		for i := 0; i < numFrames; i++ {
			off := i * frameBytes
			sample16 := int16(binary.LittleEndian.Uint16(data[off:]))
			samples[i] = audio.SampleFromInt16(sample16)
		}
	}

	return samples, nil
}

// Close releases resources.
func (d *PCMDecoder) Close() error {
	return nil
}
