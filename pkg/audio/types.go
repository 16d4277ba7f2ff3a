// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats and normalized-float sample conversions
package audio

import "math"

// Format describes an audio stream format as negotiated with a source.
type Format struct {
	Codec       string
	SampleRate  int
	Channels    int
	BitDepth    int
	CodecHeader []byte // For Opus, FLAC, etc.
}

// FrameBytes returns the byte size of one interleaved PCM frame, or 0 when
// the format does not describe raw PCM.
func (f Format) FrameBytes() int {
	if f.BitDepth == 0 || f.Channels == 0 {
		return 0
	}
	return (f.BitDepth / 8) * f.Channels
}

// Clamp bounds a sample to the normalized [-1.0, 1.0] range.
func Clamp(s float32) float32 {
	if s > 1.0 {
		return 1.0
	}
	if s < -1.0 {
		return -1.0
	}
	return s
}

// SampleToInt16 converts a normalized float sample to 16-bit PCM.
func SampleToInt16(s float32) int16 {
	return int16(Clamp(s) * math.MaxInt16)
}

// SampleFromInt16 converts a 16-bit PCM sample to a normalized float.
func SampleFromInt16(v int16) float32 {
	return float32(v) / 32768.0
}

// SampleFrom24Bit converts a 24-bit packed little-endian PCM sample to a
// normalized float.
func SampleFrom24Bit(b [3]byte) float32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return float32(val) / 8388608.0
}

// SampleTo24Bit converts a normalized float sample to 24-bit packed bytes
// (little-endian).
func SampleTo24Bit(s float32) [3]byte {
	val := int32(Clamp(s) * 8388607.0)
	return [3]byte{
		byte(val),
		byte(val >> 8),
		byte(val >> 16),
	}
}
