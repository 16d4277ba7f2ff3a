// ABOUTME: FLAC stream reader
// ABOUTME: Decodes a FLAC stream to mono float samples via mewkiz/flac
package decode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// FLACReader pulls mono float samples from a FLAC stream.
type FLACReader struct {
	stream  *flac.Stream
	pending []float32
}

// NewFLACReader creates a sample reader over a FLAC stream.
func NewFLACReader(r io.Reader) (*FLACReader, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open flac stream: %w", err)
	}

	return &FLACReader{stream: stream}, nil
}

// SampleRate returns the stream's sample rate in Hz.
func (r *FLACReader) SampleRate() int {
	return int(r.stream.Info.SampleRate)
}

// ReadSamples fills dst with mono samples from the reference (first)
// subframe of each FLAC frame. Returns io.EOF at end of stream.
func (r *FLACReader) ReadSamples(dst []float32) (int, error) {
	total := 0

	for total < len(dst) {
		if len(r.pending) == 0 {
			frame, err := r.stream.ParseNext()
			if err != nil {
				if total > 0 && err == io.EOF {
					return total, nil
				}
				return total, err
			}

			scale := float32(int32(1) << (frame.BitsPerSample - 1))
			sub := frame.Subframes[0]
			for _, v := range sub.Samples {
				r.pending = append(r.pending, float32(v)/scale)
			}
		}

		n := copy(dst[total:], r.pending)
		r.pending = r.pending[n:]
		total += n
	}

	return total, nil
}
