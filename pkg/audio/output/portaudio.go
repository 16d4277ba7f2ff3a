//go:build portaudio

// ABOUTME: PortAudio host implementation
// ABOUTME: Cross-platform callback-driven playback using PortAudio
package output

import (
	"fmt"
	"log"

	"github.com/Resonate-Protocol/relay-go/pkg/relay"
	"github.com/gordonklaus/portaudio"
)

// PortAudio host implementation. PortAudio hands the render callback a
// float32 frame buffer directly, so the stream renders into it in place.
type PortAudio struct {
	paStream *portaudio.Stream
	stream   *relay.Stream
}

// NewPortAudio creates a new PortAudio host.
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Start initializes PortAudio and opens the default output stream.
func (p *PortAudio) Start(stream *relay.Stream) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	cfg := stream.Config()
	p.stream = stream

	paStream, err := portaudio.OpenDefaultStream(0, cfg.Channels, float64(cfg.SampleRate),
		cfg.FramesPerCallback, func(out []float32) {
			if !p.stream.Render(out) {
				for i := range out {
					out[i] = 0
				}
			}
		})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	p.paStream = paStream

	log.Printf("Audio host started: %dHz, %d channels, %d frames/callback (portaudio/f32)",
		cfg.SampleRate, cfg.Channels, cfg.FramesPerCallback)

	return paStream.Start()
}

// Close stops the stream before terminating PortAudio.
func (p *PortAudio) Close() error {
	if p.paStream != nil {
		if err := p.paStream.Stop(); err != nil {
			return err
		}
		if err := p.paStream.Close(); err != nil {
			return err
		}
		p.paStream = nil
	}
	return portaudio.Terminate()
}
