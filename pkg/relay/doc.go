// ABOUTME: Real-time PCM relay core package
// ABOUTME: Lock-free ring buffer bridging ingestion and render timing domains
// Package relay bridges an irregularly-arriving stream of decoded PCM
// samples to a periodic, deadline-bound audio render callback.
//
// The package defines two types:
//   - RingBuffer: a fixed-capacity single-producer/single-consumer circular
//     sample store with atomic cursors
//   - Stream: the per-stream handle owning one RingBuffer, exposing the
//     ingestion path (Ingest) and the render path (Render)
//
// The producer and the consumer never interact directly; they share only the
// ring buffer's cursor state. Neither path ever blocks: overflow drops the
// oldest samples, underflow renders silence.
//
// Example:
//
//	stream, err := relay.New(relay.Config{
//	    CapacitySamples: 24000, // 500ms at 48kHz
//	    SampleRate:      48000,
//	    Channels:        2,
//	})
//	stream.Ingest(samples)            // from the decode goroutine
//	active := stream.Render(outFrames) // from the audio callback
package relay
