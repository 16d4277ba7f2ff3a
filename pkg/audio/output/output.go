// ABOUTME: Audio host interface definition
// ABOUTME: Common interface for callback-driven playback backends
package output

import (
	"fmt"

	"github.com/Resonate-Protocol/relay-go/pkg/relay"
)

// Host drives a relay stream from a host audio runtime.
type Host interface {
	// Start opens the playback device for the stream's format and begins
	// invoking its render callback at the configured quantum.
	Start(stream *relay.Stream) error

	// Close stops the device and releases resources. No render callback
	// runs after Close returns, so the stream may be closed afterwards.
	Close() error
}

// Volumer is implemented by hosts with software volume control.
type Volumer interface {
	SetVolume(volume int)
	SetMuted(muted bool)
}

// NewHost creates a host by backend name.
func NewHost(backend string) (Host, error) {
	switch backend {
	case "", "malgo":
		return NewMalgo(), nil
	case "oto":
		return NewOto(), nil
	case "portaudio":
		return NewPortAudio(), nil
	default:
		return nil, fmt.Errorf("unknown audio backend: %s", backend)
	}
}

// volumeMultiplier converts volume/mute state to a per-sample multiplier.
func volumeMultiplier(volume int, muted bool) float32 {
	if muted {
		return 0.0
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return float32(volume) / 100.0
}
