// ABOUTME: Relay protocol message type definitions
// ABOUTME: Defines JSON control messages and the binary audio frame format
package protocol

import (
	"encoding/binary"
	"fmt"
)

// Message is the top-level wrapper for all JSON protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by receivers to initiate the handshake
type ClientHello struct {
	ClientID       string        `json:"client_id"`
	Name           string        `json:"name"`
	Version        int           `json:"version"`
	SupportFormats []AudioFormat `json:"support_formats"`
	BufferCapacity int           `json:"buffer_capacity"` // receiver ring capacity in samples
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// AudioFormat describes a supported audio format
type AudioFormat struct {
	Codec      string `json:"codec"`
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sample_rate"`
	BitDepth   int    `json:"bit_depth"`
}

// StreamStart notifies the receiver of the stream format
type StreamStart struct {
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitDepth   int    `json:"bit_depth"`
}

// StreamEnd ends the active stream
type StreamEnd struct {
	Reason string `json:"reason,omitempty"`
}

// ServerCommand is a control command for the receiver
type ServerCommand struct {
	Command string `json:"command"` // "volume" or "mute"
	Volume  int    `json:"volume,omitempty"`
	Mute    bool   `json:"mute,omitempty"`
}

// ClientState reports the receiver's current state
type ClientState struct {
	State    string `json:"state"` // "idle" or "streaming"
	Volume   int    `json:"volume"`
	Muted    bool   `json:"muted"`
	Buffered int    `json:"buffered,omitempty"` // samples live in the ring
}

// Binary audio frames travel as WebSocket binary messages:
// one type byte, an 8-byte big-endian timestamp in microseconds, then the
// encoded payload.
const (
	audioFrameType   = 0
	audioFrameHeader = 9
)

// EncodeAudioFrame builds a binary audio frame.
func EncodeAudioFrame(timestamp int64, payload []byte) []byte {
	frame := make([]byte, audioFrameHeader+len(payload))
	frame[0] = audioFrameType
	binary.BigEndian.PutUint64(frame[1:9], uint64(timestamp))
	copy(frame[audioFrameHeader:], payload)
	return frame
}

// DecodeAudioFrame parses a binary audio frame. The returned payload
// aliases the input.
func DecodeAudioFrame(data []byte) (timestamp int64, payload []byte, err error) {
	if len(data) < audioFrameHeader {
		return 0, nil, fmt.Errorf("audio frame too short: %d bytes", len(data))
	}
	if data[0] != audioFrameType {
		return 0, nil, fmt.Errorf("unknown binary message type: %d", data[0])
	}

	timestamp = int64(binary.BigEndian.Uint64(data[1:9]))
	return timestamp, data[audioFrameHeader:], nil
}
