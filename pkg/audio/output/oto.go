// ABOUTME: Oto-based audio host implementation
// ABOUTME: Pull-based fallback feeding oto's player from the render path
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/Resonate-Protocol/relay-go/pkg/audio"
	"github.com/Resonate-Protocol/relay-go/pkg/relay"
	"github.com/ebitengine/oto/v3"
)

// Oto drives a relay stream through oto's pull-based player. Oto reads
// 16-bit PCM from an io.Reader on its own goroutine; the reader adapter
// translates each pull into render callback invocations.
type Oto struct {
	otoCtx *oto.Context
	player *oto.Player
	reader *renderReader

	volume atomic.Int32
	muted  atomic.Bool
}

// NewOto creates a new oto host.
func NewOto() *Oto {
	o := &Oto{}
	o.volume.Store(100)
	return o
}

// Start opens the output device and begins pulling from the stream.
func (o *Oto) Start(stream *relay.Stream) error {
	if o.otoCtx != nil {
		return fmt.Errorf("host already started")
	}

	cfg := stream.Config()

	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.reader = &renderReader{
		stream:   stream,
		channels: cfg.Channels,
		scratch:  make([]float32, cfg.FramesPerCallback*cfg.Channels),
		multiplier: func() float32 {
			return volumeMultiplier(int(o.volume.Load()), o.muted.Load())
		},
	}

	o.player = ctx.NewPlayer(o.reader)
	o.player.Play()

	log.Printf("Audio host started: %dHz, %d channels (oto/s16)", cfg.SampleRate, cfg.Channels)

	return nil
}

// SetVolume sets the volume (0-100).
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.volume.Store(int32(volume))
}

// SetMuted sets mute state.
func (o *Oto) SetMuted(muted bool) {
	o.muted.Store(muted)
}

// Close stops the player before returning; oto performs no further reads
// afterwards, so the stream may be closed safely.
func (o *Oto) Close() error {
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
		o.otoCtx = nil
	}
	return nil
}

// renderReader adapts the relay render path to oto's io.Reader pull model.
// Each Read renders at most one quantum of frames and converts them to
// 16-bit little-endian PCM.
type renderReader struct {
	stream     *relay.Stream
	channels   int
	scratch    []float32
	multiplier func() float32
}

// Read implements io.Reader. Returns io.EOF once the stream reports stop.
func (r *renderReader) Read(p []byte) (int, error) {
	frames := len(p) / (2 * r.channels)
	if frames == 0 {
		return 0, nil
	}
	if max := len(r.scratch) / r.channels; frames > max {
		frames = max
	}

	chunk := r.scratch[:frames*r.channels]
	if !r.stream.Render(chunk) {
		return 0, io.EOF
	}

	mult := r.multiplier()
	for i, s := range chunk {
		v := audio.SampleToInt16(s * mult)
		binary.LittleEndian.PutUint16(p[i*2:], uint16(v))
	}

	return frames * r.channels * 2, nil
}
