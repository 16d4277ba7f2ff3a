// ABOUTME: Lock-free single-producer/single-consumer ring buffer
// ABOUTME: Fixed-capacity circular float32 sample store with atomic cursors
package relay

import (
	"fmt"
	"sync/atomic"
)

// ErrConfiguration is returned when a buffer or stream is created with an
// unusable configuration.
var ErrConfiguration = fmt.Errorf("relay: invalid configuration")

// RingBuffer is a fixed-capacity circular store of mono float32 samples
// shared between exactly one producer and one consumer.
//
// Both cursors are atomics. Go's sync/atomic provides sequential
// consistency: a sample store becomes visible to the consumer no later than
// the write-cursor update that publishes it, and the producer observes
// consumer progress the same way. The write cursor is stored only by the
// producer. The read cursor is contended on overflow, when the producer
// drops the oldest sample while the consumer may be popping it, so both
// sides advance it with compare-and-swap: a failed swap means the other
// side already moved the cursor past the slot, and the cursor can never
// travel backwards.
//
// Neither side ever blocks. The producer overwrites the oldest unread sample
// when full; the consumer emits silence when empty. One slot stays
// permanently unused so a full buffer is distinguishable from an empty one,
// so at most capacity-1 samples are live at any time.
//
// Thread assignment:
//   - Write: producer goroutine only
//   - Read: consumer (audio callback) only
type RingBuffer struct {
	// Cursors live on separate cache lines so producer and consumer don't
	// invalidate each other's line on every update.
	write atomic.Uint32
	_     [60]byte
	read  atomic.Uint32
	_     [60]byte

	store    []float32
	capacity uint32
}

// NewRingBuffer creates a ring buffer with the given capacity in samples.
// Capacity must be at least 2.
func NewRingBuffer(capacity int) (*RingBuffer, error) {
	if capacity < 2 {
		return nil, fmt.Errorf("%w: capacity %d, need at least 2 sample slots", ErrConfiguration, capacity)
	}

	return &RingBuffer{
		store:    make([]float32, capacity),
		capacity: uint32(capacity),
	}, nil
}

// Write copies samples into the buffer in arrival order. When the buffer is
// full the oldest unread sample is dropped first, so under sustained
// overflow the buffer holds the most recent capacity-1 samples. Never
// blocks, never fails. Returns the number of samples dropped, for
// statistics only.
func (b *RingBuffer) Write(samples []float32) int {
	dropped := 0
	w := b.write.Load()

	for _, s := range samples {
		next := w + 1
		if next == b.capacity {
			next = 0
		}

		if next == b.read.Load() {
			// Full: slide the window forward over the oldest sample. A
			// failed swap means the consumer popped that sample first,
			// which frees the slot just as well.
			r := next + 1
			if r == b.capacity {
				r = 0
			}
			if b.read.CompareAndSwap(next, r) {
				dropped++
			}
		}

		b.store[w] = s
		b.write.Store(next)
		w = next
	}

	return dropped
}

// Read fills dst with the oldest buffered samples in FIFO order. Slots the
// buffer cannot cover are filled with silence (0.0) without moving the read
// cursor. Always fills all of dst. Returns the number of real (non-silence)
// samples, for statistics only.
func (b *RingBuffer) Read(dst []float32) int {
	got := 0
	for i := range dst {
		s, ok := b.readOne()
		if !ok {
			dst[i] = 0
			continue
		}
		dst[i] = s
		got++
	}

	return got
}

// readOne pops a single sample, or returns silence when the buffer is
// empty. Consumer side only.
func (b *RingBuffer) readOne() (float32, bool) {
	for {
		r := b.read.Load()
		if r == b.write.Load() {
			return 0, false
		}

		s := b.store[r]
		next := r + 1
		if next == b.capacity {
			next = 0
		}

		// Claim the slot. A failed swap means the producer dropped this
		// sample on overflow while it was being read; retry on the new
		// oldest sample. Each failure implies producer progress, so the
		// loop is bounded and never spins idle.
		if b.read.CompareAndSwap(r, next) {
			return s, true
		}
	}
}

// Size returns the number of live samples, always in [0, capacity-1].
func (b *RingBuffer) Size() int {
	w := b.write.Load()
	r := b.read.Load()
	return int((w - r + b.capacity) % b.capacity)
}

// Capacity returns the total number of sample slots.
func (b *RingBuffer) Capacity() int {
	return int(b.capacity)
}
