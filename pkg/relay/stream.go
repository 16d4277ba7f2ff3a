// ABOUTME: Stream handle owning one ring buffer per active audio stream
// ABOUTME: Ingest feeds decoded samples in, Render drains them per callback
package relay

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Default stream parameters, used when Config fields are zero.
const (
	DefaultSampleRate        = 48000
	DefaultChannels          = 2
	DefaultFramesPerCallback = 480 // 10ms at 48kHz
)

// Config holds stream configuration.
type Config struct {
	// CapacitySamples is the ring buffer capacity in mono samples.
	// Must be at least 2; at most CapacitySamples-1 samples are buffered.
	CapacitySamples int

	// SampleRate is the playback sample rate in Hz (default: 48000).
	SampleRate int

	// Channels is the output channel count; the mono source sample is
	// replicated across all of them (default: 2).
	Channels int

	// FramesPerCallback is the render quantum the host is registered
	// with (default: 480).
	FramesPerCallback int
}

// Stats holds stream counters. All counters are cumulative.
type Stats struct {
	Ingested  int64 // samples accepted on the ingestion path
	Dropped   int64 // samples discarded oldest-first on overflow
	Rendered  int64 // frames produced on the render path
	Underruns int64 // frames filled with silence on underflow
	Buffered  int   // samples currently live in the ring
}

// Stream is the per-stream relay handle: one ring buffer plus the two
// access paths that touch it. The stream object owns the buffer; the
// ingestion and render sides hold only the stream reference.
type Stream struct {
	id     string
	config Config
	ring   *RingBuffer
	active atomic.Bool

	ingested  atomic.Int64
	dropped   atomic.Int64
	rendered  atomic.Int64
	underruns atomic.Int64
}

// New creates a stream and its ring buffer. Fails with ErrConfiguration if
// CapacitySamples is below 2; this is the only fallible operation on a
// stream, reported synchronously at creation and never on the render path.
func New(config Config) (*Stream, error) {
	if config.SampleRate == 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.Channels == 0 {
		config.Channels = DefaultChannels
	}
	if config.FramesPerCallback == 0 {
		config.FramesPerCallback = DefaultFramesPerCallback
	}

	ring, err := NewRingBuffer(config.CapacitySamples)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		id:     uuid.New().String(),
		config: config,
		ring:   ring,
	}
	s.active.Store(true)

	return s, nil
}

// Ingest accepts a chunk of normalized mono samples from the decode layer
// and forwards it to the ring buffer. Callable at arbitrary times with
// arbitrary chunk sizes from any non-real-time goroutine; never blocks the
// caller and signals no backpressure. Returns the number of samples that
// were discarded oldest-first to make room. Ingesting into a closed stream
// is a no-op.
func (s *Stream) Ingest(samples []float32) int {
	if !s.active.Load() {
		return 0
	}

	dropped := s.ring.Write(samples)
	s.ingested.Add(int64(len(samples)))
	if dropped > 0 {
		s.dropped.Add(int64(dropped))
	}
	return dropped
}

// Render fills the host-provided output frame buffer, one source sample per
// frame replicated across every output channel, silence where the ring runs
// dry. Returns the continuation signal: true while the stream is active,
// regardless of buffer state. A malformed buffer (empty, or a length that
// is not a multiple of the channel count) is a no-op that still reports
// continue, since no caller can recover mid-callback.
//
// This is the real-time path: no locks, no allocation, no blocking calls.
func (s *Stream) Render(out []float32) bool {
	if !s.active.Load() {
		return false
	}

	ch := s.config.Channels
	if len(out) == 0 || len(out)%ch != 0 {
		return true
	}

	frames := len(out) / ch
	misses := 0
	for f := 0; f < frames; f++ {
		v, ok := s.ring.readOne()
		if !ok {
			misses++
		}

		base := f * ch
		out[base] = v
		for c := 1; c < ch; c++ {
			out[base+c] = v
		}
	}

	s.rendered.Add(int64(frames))
	if misses > 0 {
		s.underruns.Add(int64(misses))
	}

	return true
}

// Close marks the stream inactive: Render reports stop and Ingest becomes a
// no-op. The host audio runtime must stop invoking Render before or
// atomically with stream teardown; the output hosts in pkg/audio/output
// honor that ordering.
func (s *Stream) Close() {
	s.active.Store(false)
}

// Active reports whether the stream is still running.
func (s *Stream) Active() bool {
	return s.active.Load()
}

// ID returns the stream's unique identifier.
func (s *Stream) ID() string {
	return s.id
}

// Config returns the stream configuration.
func (s *Stream) Config() Config {
	return s.config
}

// Buffered returns the number of samples currently live in the ring.
func (s *Stream) Buffered() int {
	return s.ring.Size()
}

// Stats returns a snapshot of the stream counters.
func (s *Stream) Stats() Stats {
	return Stats{
		Ingested:  s.ingested.Load(),
		Dropped:   s.dropped.Load(),
		Rendered:  s.rendered.Load(),
		Underruns: s.underruns.Load(),
		Buffered:  s.ring.Size(),
	}
}
