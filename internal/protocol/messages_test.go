// ABOUTME: Tests for protocol messages
// ABOUTME: Verifies JSON shape and binary audio frame round trips
package protocol

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestClientHelloJSON(t *testing.T) {
	hello := ClientHello{
		ClientID: "abc",
		Name:     "Living Room",
		Version:  1,
		SupportFormats: []AudioFormat{
			{Codec: "pcm", Channels: 1, SampleRate: 48000, BitDepth: 16},
		},
		BufferCapacity: 24000,
	}

	data, err := json.Marshal(Message{Type: "client/hello", Payload: hello})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var msg struct {
		Type    string      `json:"type"`
		Payload ClientHello `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if msg.Type != "client/hello" {
		t.Errorf("expected type client/hello, got %s", msg.Type)
	}
	if msg.Payload.BufferCapacity != 24000 {
		t.Errorf("expected buffer capacity 24000, got %d", msg.Payload.BufferCapacity)
	}
	if len(msg.Payload.SupportFormats) != 1 || msg.Payload.SupportFormats[0].Codec != "pcm" {
		t.Errorf("support formats not preserved: %+v", msg.Payload.SupportFormats)
	}
}

func TestAudioFrameRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	frame := EncodeAudioFrame(123456789, payload)

	ts, got, err := DecodeAudioFrame(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts != 123456789 {
		t.Errorf("expected timestamp 123456789, got %d", ts)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("expected payload %v, got %v", payload, got)
	}
}

func TestDecodeAudioFrameRejectsMalformed(t *testing.T) {
	if _, _, err := DecodeAudioFrame([]byte{0, 1, 2}); err == nil {
		t.Error("expected error for short frame")
	}
	if _, _, err := DecodeAudioFrame(EncodeAudioFrame(0, nil)); err != nil {
		t.Errorf("empty payload should be valid: %v", err)
	}

	bad := EncodeAudioFrame(0, []byte{1})
	bad[0] = 7
	if _, _, err := DecodeAudioFrame(bad); err == nil {
		t.Error("expected error for unknown frame type")
	}
}
