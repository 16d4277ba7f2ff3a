// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and normalized-float sample conversions
// Package audio provides fundamental audio types and utilities for the
// relay library.
//
// Samples inside the relay are normalized float32 values in [-1.0, 1.0];
// this package converts between that representation and the integer PCM
// formats used on the wire and by output devices:
//   - 16-bit ↔ normalized float conversions
//   - 24-bit packed byte ↔ normalized float conversions
//
// Example:
//
//	format := audio.Format{
//	    Codec:      "pcm",
//	    SampleRate: 48000,
//	    Channels:   1,
//	    BitDepth:   16,
//	}
//	sample := audio.SampleFromInt16(pcm16)
package audio
