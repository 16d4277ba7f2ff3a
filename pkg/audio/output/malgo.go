// ABOUTME: Malgo-based audio host implementation
// ABOUTME: Drives the relay render callback from a miniaudio playback device
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/relay-go/pkg/audio"
	"github.com/Resonate-Protocol/relay-go/pkg/relay"
	"github.com/gen2brain/malgo"
)

// Malgo drives a relay stream from a miniaudio playback device. The device
// invokes the data callback on its own real-time thread; everything that
// callback touches is either the stream's lock-free render path or atomics.
type Malgo struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	stream   *relay.Stream

	channels int
	scratch  []float32 // sized to the registered quantum, reused per callback

	volume atomic.Int32
	muted  atomic.Bool
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
}

// NewMalgo creates a new malgo host.
func NewMalgo() *Malgo {
	m := &Malgo{
		done: make(chan struct{}),
	}
	m.volume.Store(100)
	return m
}

// Start opens a float32 playback device for the stream's format and begins
// periodic rendering.
func (m *Malgo) Start(stream *relay.Stream) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("host already started")
	}

	cfg := stream.Config()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.FramesPerCallback)
	deviceConfig.Alsa.NoMMap = 1

	m.stream = stream
	m.channels = cfg.Channels
	m.scratch = make([]float32, cfg.FramesPerCallback*cfg.Channels)

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.dataCallback(pOutputSample, frameCount)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.malgoCtx = ctx
	m.device = device

	log.Printf("Audio host started: %dHz, %d channels, %d frames/callback (malgo/f32)",
		cfg.SampleRate, cfg.Channels, cfg.FramesPerCallback)

	return nil
}

// dataCallback fills the device buffer from the stream's render path. It
// runs on the device's real-time thread: no locks, no allocation.
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	needed := int(frameCount) * m.channels
	mult := volumeMultiplier(int(m.volume.Load()), m.muted.Load())

	off := 0
	for off < needed {
		n := needed - off
		if n > len(m.scratch) {
			n = len(m.scratch)
		}
		chunk := m.scratch[:n]

		if !m.stream.Render(chunk) {
			// Stream torn down: emit silence and notify the owner.
			for i := range chunk {
				chunk[i] = 0
			}
			m.once.Do(func() { close(m.done) })
		}

		for i, s := range chunk {
			bits := math.Float32bits(audio.Clamp(s * mult))
			binary.LittleEndian.PutUint32(pOutput[(off+i)*4:], bits)
		}
		off += n
	}
}

// Done is closed when the stream reports it has finished.
func (m *Malgo) Done() <-chan struct{} {
	return m.done
}

// SetVolume sets the volume (0-100).
func (m *Malgo) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	m.volume.Store(int32(volume))
}

// SetMuted sets mute state.
func (m *Malgo) SetMuted(muted bool) {
	m.muted.Store(muted)
}

// Close stops the device before releasing anything, so no render callback
// is in flight when it returns.
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}

	return nil
}
