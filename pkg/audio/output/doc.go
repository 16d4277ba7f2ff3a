// ABOUTME: Audio output package driving relay streams from host runtimes
// ABOUTME: Provides Host interface with malgo, oto and PortAudio backends
// Package output binds relay streams to host audio runtimes.
//
// A Host opens a playback device for a stream's format and arranges for the
// runtime to invoke the stream's render callback periodically until the
// host is closed. Closing a host always stops the device before returning,
// so the stream can be torn down safely afterwards.
//
// Backends:
//   - malgo (miniaudio): callback-driven, the default
//   - oto: pull-based fallback
//   - PortAudio: behind the "portaudio" build tag
//
// Example:
//
//	host := output.NewMalgo()
//	err := host.Start(stream)
//	...
//	host.Close()   // device stops invoking the callback
//	stream.Close() // safe: no render call is in flight
package output
