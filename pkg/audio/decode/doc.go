// ABOUTME: Audio decoding package for the ingestion side of the relay
// ABOUTME: Chunk decoders for network codecs, sample readers for files
// Package decode converts encoded audio into the normalized mono float
// samples the relay ingests.
//
// Two shapes are provided:
//   - Decoder: stateless-per-chunk decoding for codecs delivered as
//     discrete network frames (PCM, Opus)
//   - SampleReader: pull-based decoding for container formats that need a
//     contiguous stream (MP3, FLAC), used for local-file playback
//
// Multi-channel input is reduced to its reference (first) channel; channel
// replication back to the output layout happens at render time.
package decode
