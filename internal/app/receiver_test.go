// ABOUTME: Tests for receiver application orchestration
// ABOUTME: Tests receiver creation, configuration defaults, and lifecycle
package app

import (
	"testing"

	"github.com/Resonate-Protocol/relay-go/pkg/audio"
)

func TestNewReceiver(t *testing.T) {
	config := Config{
		ServerAddr: "localhost:8927",
		Name:       "test-receiver",
		BufferMs:   300,
	}

	receiver := New(config)

	if receiver == nil {
		t.Fatal("expected receiver to be created")
	}

	if receiver.config.ServerAddr != config.ServerAddr {
		t.Errorf("expected ServerAddr %s, got %s", config.ServerAddr, receiver.config.ServerAddr)
	}

	if receiver.config.BufferMs != 300 {
		t.Errorf("expected BufferMs 300, got %d", receiver.config.BufferMs)
	}
}

func TestConfigDefaults(t *testing.T) {
	receiver := New(Config{Name: "test-receiver"})

	if receiver.config.BufferMs != 500 {
		t.Errorf("expected default BufferMs 500, got %d", receiver.config.BufferMs)
	}
	if receiver.config.Backend != "malgo" {
		t.Errorf("expected default backend malgo, got %s", receiver.config.Backend)
	}
	if receiver.config.OutputChannels != 2 {
		t.Errorf("expected default 2 output channels, got %d", receiver.config.OutputChannels)
	}
	if receiver.config.FramesPerCallback != 480 {
		t.Errorf("expected default 480 frames per callback, got %d", receiver.config.FramesPerCallback)
	}
}

func TestReceiverInitialization(t *testing.T) {
	receiver := New(Config{Name: "test-receiver"})

	if receiver.ctx == nil {
		t.Error("context should be initialized")
	}
	if receiver.cancel == nil {
		t.Error("cancel function should be initialized")
	}
	if receiver.Volume() != 100 {
		t.Errorf("expected default volume 100, got %d", receiver.Volume())
	}
	if receiver.Muted() {
		t.Error("expected receiver to not be muted by default")
	}
}

func TestReceiverStop(t *testing.T) {
	receiver := New(Config{Name: "test-receiver"})

	// Should not panic without a connection or active stream
	receiver.Stop()

	select {
	case <-receiver.ctx.Done():
	default:
		t.Error("context should be cancelled after Stop()")
	}
}

func TestVolumeWithoutHost(t *testing.T) {
	var states []State
	receiver := New(Config{
		Name: "test-receiver",
		OnStateChange: func(s State) {
			states = append(states, s)
		},
	})

	receiver.SetVolume(40)
	receiver.SetMuted(true)

	if receiver.Volume() != 40 {
		t.Errorf("expected volume 40, got %d", receiver.Volume())
	}
	if !receiver.Muted() {
		t.Error("expected muted after SetMuted(true)")
	}

	if len(states) != 2 {
		t.Fatalf("expected 2 state notifications, got %d", len(states))
	}
	if states[1].Volume != 40 || !states[1].Muted {
		t.Errorf("unexpected final state: %+v", states[1])
	}
}

func TestSnapshotCarriesStreamFormat(t *testing.T) {
	receiver := New(Config{Name: "test-receiver"})

	receiver.mu.Lock()
	receiver.format = audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 1, BitDepth: 16}
	receiver.mu.Unlock()

	s := receiver.Snapshot()
	if s.Codec != "pcm" || s.SampleRate != 48000 || s.Channels != 1 || s.BitDepth != 16 {
		t.Errorf("unexpected format in snapshot: %s %dHz %dch %dbit",
			s.Codec, s.SampleRate, s.Channels, s.BitDepth)
	}

	receiver.closeStream()

	s = receiver.Snapshot()
	if s.Codec != "" || s.SampleRate != 0 || s.Channels != 0 || s.BitDepth != 0 {
		t.Errorf("expected format to clear after teardown, got: %s %dHz %dch %dbit",
			s.Codec, s.SampleRate, s.Channels, s.BitDepth)
	}
}

func TestSnapshotIdle(t *testing.T) {
	receiver := New(Config{Name: "test-receiver"})

	s := receiver.Snapshot()
	if s.Connected {
		t.Error("expected not connected")
	}
	if s.Streaming {
		t.Error("expected not streaming")
	}
	if s.Capacity != 0 {
		t.Errorf("expected zero capacity without a stream, got %d", s.Capacity)
	}
}
