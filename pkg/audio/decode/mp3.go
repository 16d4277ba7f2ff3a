// ABOUTME: MP3 stream reader
// ABOUTME: Decodes an MP3 stream to mono float samples via go-mp3
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/relay-go/pkg/audio"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// MP3Reader pulls mono float samples from an MP3 stream.
type MP3Reader struct {
	decoder *mp3.Decoder
	buf     []byte
}

// NewMP3Reader creates a sample reader over an MP3 stream.
func NewMP3Reader(r io.Reader) (*MP3Reader, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	return &MP3Reader{decoder: decoder}, nil
}

// SampleRate returns the stream's sample rate in Hz.
func (r *MP3Reader) SampleRate() int {
	return r.decoder.SampleRate()
}

// ReadSamples fills dst with mono samples, taking the left channel of the
// decoded 16-bit stereo stream. Returns io.EOF at end of stream.
func (r *MP3Reader) ReadSamples(dst []float32) (int, error) {
	// go-mp3 always decodes to 16-bit stereo: 4 bytes per frame.
	need := len(dst) * 4
	if cap(r.buf) < need {
		r.buf = make([]byte, need)
	}
	buf := r.buf[:need]

	n, err := io.ReadFull(r.decoder, buf)
	frames := n / 4
	for i := 0; i < frames; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(buf[i*4:]))
		dst[i] = audio.SampleFromInt16(sample16)
	}

	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if frames > 0 && err == io.EOF {
		return frames, nil
	}
	return frames, err
}
