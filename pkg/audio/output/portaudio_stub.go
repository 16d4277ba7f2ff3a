//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"fmt"

	"github.com/Resonate-Protocol/relay-go/pkg/relay"
)

// PortAudio host implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio host
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Start opens the playback device
func (p *PortAudio) Start(stream *relay.Stream) error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

// Close releases resources
func (p *PortAudio) Close() error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}
