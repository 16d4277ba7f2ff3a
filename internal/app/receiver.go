// ABOUTME: Main receiver application orchestration
// ABOUTME: Wires the network client, decoder, relay stream and output host
package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/Resonate-Protocol/relay-go/internal/client"
	"github.com/Resonate-Protocol/relay-go/internal/discovery"
	"github.com/Resonate-Protocol/relay-go/internal/protocol"
	"github.com/Resonate-Protocol/relay-go/internal/version"
	"github.com/Resonate-Protocol/relay-go/pkg/audio"
	"github.com/Resonate-Protocol/relay-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/relay-go/pkg/audio/output"
	"github.com/Resonate-Protocol/relay-go/pkg/relay"
	"github.com/google/uuid"
)

// Config holds receiver configuration
type Config struct {
	ServerAddr        string // empty means discover via mDNS
	ServerPath        string // WebSocket endpoint path (default: /relay)
	Port              int
	Name              string
	BufferMs          int    // ring depth in milliseconds of audio
	Backend           string // output host backend
	OutputChannels    int
	FramesPerCallback int

	// Optional UI callbacks
	OnStateChange func(State)
	OnError       func(error)
}

// State is a snapshot of the receiver for UI consumption
type State struct {
	Connected bool
	Streaming bool
	Volume    int
	Muted     bool

	// Active stream format, zero values when idle
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int

	Stats    relay.Stats
	Capacity int
}

// Receiver represents the main receiver application
type Receiver struct {
	config    Config
	client    *client.Client
	discovery *discovery.Manager

	mu      sync.RWMutex
	stream  *relay.Stream
	decoder decode.Decoder
	host    output.Host
	format  audio.Format
	volume  int
	muted   bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new receiver
func New(config Config) *Receiver {
	if config.BufferMs <= 0 {
		config.BufferMs = 500
	}
	if config.Backend == "" {
		config.Backend = "malgo"
	}
	if config.OutputChannels <= 0 {
		config.OutputChannels = 2
	}
	if config.FramesPerCallback <= 0 {
		config.FramesPerCallback = 480
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Receiver{
		config: config,
		volume: 100,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start starts the receiver
func (r *Receiver) Start() error {
	if r.config.ServerAddr == "" {
		r.discovery = discovery.NewManager(discovery.Config{
			ServiceName: r.config.Name,
			Port:        r.config.Port,
		})

		r.discovery.Advertise()
		r.discovery.Browse()

		go r.handleDiscovery()
		return nil
	}

	return r.connect(r.config.ServerAddr, r.config.ServerPath)
}

// handleDiscovery waits for server discovery
func (r *Receiver) handleDiscovery() {
	for {
		select {
		case server := <-r.discovery.Servers():
			log.Printf("Attempting connection to %s", server.Addr())

			if err := r.connect(server.Addr(), server.Path); err != nil {
				log.Printf("Connection failed: %v", err)
				continue
			}
			return

		case <-r.ctx.Done():
			return
		}
	}
}

// connect establishes connection to server
func (r *Receiver) connect(serverAddr, path string) error {
	clientConfig := client.Config{
		ServerAddr: serverAddr,
		Path:       path,
		ClientID:   uuid.New().String(),
		Name:       r.config.Name,
		Version:    1,
		SupportFormats: []protocol.AudioFormat{
			{Codec: "opus", Channels: 2, SampleRate: 48000, BitDepth: 16},
			{Codec: "pcm", Channels: 2, SampleRate: 48000, BitDepth: 16},
			{Codec: "pcm", Channels: 1, SampleRate: 48000, BitDepth: 16},
		},
		BufferCapacity: 48000 * r.config.BufferMs / 1000,
	}

	r.client = client.NewClient(clientConfig)

	if err := r.client.Connect(); err != nil {
		return err
	}

	log.Printf("Connected to server: %s (%s %s)", serverAddr, version.Product, version.Version)

	go r.handleStreamStart()
	go r.handleAudioChunks()
	go r.handleControls()
	go r.handleStreamEnd()

	r.notify()
	return nil
}

// handleStreamStart initializes decoder, ring and output host
func (r *Receiver) handleStreamStart() {
	for {
		select {
		case start := <-r.client.StreamStart:
			log.Printf("Stream starting: %s %dHz %dch %dbit",
				start.Codec, start.SampleRate, start.Channels, start.BitDepth)

			if err := r.openStream(start); err != nil {
				log.Printf("Failed to open stream: %v", err)
				r.reportError(err)
			}

		case <-r.ctx.Done():
			return
		}
	}
}

// openStream tears down any previous stream and builds the new pipeline
func (r *Receiver) openStream(start protocol.StreamStart) error {
	r.closeStream()

	format := audio.Format{
		Codec:      start.Codec,
		SampleRate: start.SampleRate,
		Channels:   start.Channels,
		BitDepth:   start.BitDepth,
	}

	decoder, err := decode.New(format)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	stream, err := relay.New(relay.Config{
		CapacitySamples:   start.SampleRate * r.config.BufferMs / 1000,
		SampleRate:        start.SampleRate,
		Channels:          r.config.OutputChannels,
		FramesPerCallback: r.config.FramesPerCallback,
	})
	if err != nil {
		decoder.Close()
		return fmt.Errorf("failed to create stream: %w", err)
	}

	host, err := output.NewHost(r.config.Backend)
	if err != nil {
		decoder.Close()
		stream.Close()
		return fmt.Errorf("failed to create output host: %w", err)
	}

	if err := host.Start(stream); err != nil {
		decoder.Close()
		stream.Close()
		return fmt.Errorf("failed to start output host: %w", err)
	}

	r.mu.Lock()
	r.decoder = decoder
	r.stream = stream
	r.host = host
	r.format = format
	volume, muted := r.volume, r.muted
	r.applyVolumeLocked()
	r.mu.Unlock()

	r.sendState(volume, muted)
	r.notify()
	return nil
}

// handleAudioChunks decodes chunks and pushes samples into the ring
func (r *Receiver) handleAudioChunks() {
	for {
		select {
		case chunk := <-r.client.AudioChunks:
			r.mu.RLock()
			decoder := r.decoder
			stream := r.stream
			r.mu.RUnlock()

			if decoder == nil || stream == nil {
				continue
			}

			samples, err := decoder.Decode(chunk.Data)
			if err != nil {
				log.Printf("Decode error: %v", err)
				continue
			}

			if dropped := stream.Ingest(samples); dropped > 0 {
				log.Printf("Ring overflow: dropped %d oldest samples", dropped)
			}

		case <-r.ctx.Done():
			return
		}
	}
}

// handleControls processes server commands
func (r *Receiver) handleControls() {
	for {
		select {
		case cmd := <-r.client.ControlMsgs:
			switch cmd.Command {
			case "volume":
				r.SetVolume(cmd.Volume)
			case "mute":
				r.SetMuted(cmd.Mute)
			}

		case <-r.ctx.Done():
			return
		}
	}
}

// handleStreamEnd tears down the pipeline when the server ends the stream
func (r *Receiver) handleStreamEnd() {
	for {
		select {
		case end := <-r.client.StreamEnd:
			log.Printf("Stream ended: %s", end.Reason)
			r.closeStream()

			r.sendState(r.Volume(), r.Muted())
			r.notify()

		case <-r.ctx.Done():
			return
		}
	}
}

// closeStream stops the host before closing the stream. The host owns the
// render callback, so it must go first.
func (r *Receiver) closeStream() {
	r.mu.Lock()
	host := r.host
	stream := r.stream
	decoder := r.decoder
	r.host = nil
	r.stream = nil
	r.decoder = nil
	r.format = audio.Format{}
	r.mu.Unlock()

	if host != nil {
		if err := host.Close(); err != nil {
			log.Printf("Error closing output host: %v", err)
		}
	}
	if stream != nil {
		stream.Close()
	}
	if decoder != nil {
		decoder.Close()
	}
}

// SetVolume sets the output volume (0-100)
func (r *Receiver) SetVolume(volume int) {
	r.mu.Lock()
	r.volume = volume
	muted := r.muted
	r.applyVolumeLocked()
	r.mu.Unlock()

	r.sendState(volume, muted)
	r.notify()
}

// SetMuted sets the mute state
func (r *Receiver) SetMuted(muted bool) {
	r.mu.Lock()
	r.muted = muted
	volume := r.volume
	r.applyVolumeLocked()
	r.mu.Unlock()

	r.sendState(volume, muted)
	r.notify()
}

// sendState reports playback state to the server if connected
func (r *Receiver) sendState(volume int, muted bool) {
	if r.client == nil || !r.client.IsConnected() {
		return
	}
	r.client.SendState(protocol.ClientState{
		State:  r.stateName(),
		Volume: volume,
		Muted:  muted,
	})
}

// applyVolumeLocked pushes the volume to the host. Caller holds r.mu.
func (r *Receiver) applyVolumeLocked() {
	if v, ok := r.host.(output.Volumer); ok {
		v.SetVolume(r.volume)
		v.SetMuted(r.muted)
	}
}

// Volume returns the current volume
func (r *Receiver) Volume() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.volume
}

// Muted returns the current mute state
func (r *Receiver) Muted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.muted
}

// Snapshot returns the current receiver state
func (r *Receiver) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := State{
		Connected:  r.client != nil && r.client.IsConnected(),
		Streaming:  r.stream != nil && r.stream.Active(),
		Volume:     r.volume,
		Muted:      r.muted,
		Codec:      r.format.Codec,
		SampleRate: r.format.SampleRate,
		Channels:   r.format.Channels,
		BitDepth:   r.format.BitDepth,
	}
	if r.stream != nil {
		s.Stats = r.stream.Stats()
		s.Capacity = r.stream.Config().CapacitySamples
	}
	return s
}

// stateName returns the protocol state string. Caller need not hold r.mu.
func (r *Receiver) stateName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stream != nil && r.stream.Active() {
		return "streaming"
	}
	return "idle"
}

// notify pushes a state snapshot to the UI callback
func (r *Receiver) notify() {
	if r.config.OnStateChange != nil {
		r.config.OnStateChange(r.Snapshot())
	}
}

// reportError pushes an error to the UI callback
func (r *Receiver) reportError(err error) {
	if r.config.OnError != nil {
		r.config.OnError(err)
	}
}

// Stop stops the receiver
func (r *Receiver) Stop() {
	r.cancel()

	r.closeStream()

	if r.client != nil {
		r.client.Close()
	}

	if r.discovery != nil {
		r.discovery.Stop()
	}
}
