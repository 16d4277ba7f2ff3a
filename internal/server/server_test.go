// ABOUTME: Tests for the relay server
// ABOUTME: Verifies handshake, stream start and chunk broadcast over WebSocket
package server

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/Resonate-Protocol/relay-go/internal/protocol"
	"github.com/gorilla/websocket"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServerHandshakeAndBroadcast(t *testing.T) {
	port := freePort(t)
	srv := New(Config{Port: port, Name: "Test Server"})

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	defer func() {
		srv.Stop()
		<-done
	}()

	// Wait for the listener to come up
	url := fmt.Sprintf("ws://127.0.0.1:%d/relay", port)
	var conn *websocket.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	hello := protocol.Message{
		Type: "client/hello",
		Payload: protocol.ClientHello{
			ClientID:       "test-client",
			Name:           "Test Receiver",
			Version:        ProtocolVersion,
			BufferCapacity: 24000,
		},
	}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("failed to send hello: %v", err)
	}

	var serverHello protocol.Message
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&serverHello); err != nil {
		t.Fatalf("failed to read server hello: %v", err)
	}
	if serverHello.Type != "server/hello" {
		t.Fatalf("expected server/hello, got %s", serverHello.Type)
	}

	var start protocol.Message
	if err := conn.ReadJSON(&start); err != nil {
		t.Fatalf("failed to read stream start: %v", err)
	}
	if start.Type != "stream/start" {
		t.Fatalf("expected stream/start, got %s", start.Type)
	}

	// The broadcast loop ticks every 20ms, so a chunk arrives quickly
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("failed to read chunk: %v", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		_, payload, err := protocol.DecodeAudioFrame(data)
		if err != nil {
			t.Fatalf("invalid audio frame: %v", err)
		}
		want := StreamSampleRate * 20 / 1000 * 2 // 20ms of mono s16
		if len(payload) != want {
			t.Errorf("expected %d byte payload, got %d", want, len(payload))
		}
		break
	}

	if srv.ClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", srv.ClientCount())
	}
}

func TestServerRejectsDuplicateClientID(t *testing.T) {
	port := freePort(t)
	srv := New(Config{Port: port, Name: "Test Server"})

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	defer func() {
		srv.Stop()
		<-done
	}()

	url := fmt.Sprintf("ws://127.0.0.1:%d/relay", port)
	dial := func() *websocket.Conn {
		var conn *websocket.Conn
		var err error
		for i := 0; i < 50; i++ {
			conn, _, err = websocket.DefaultDialer.Dial(url, nil)
			if err == nil {
				return conn
			}
			time.Sleep(50 * time.Millisecond)
		}
		t.Fatalf("failed to connect: %v", err)
		return nil
	}

	hello := protocol.Message{
		Type:    "client/hello",
		Payload: protocol.ClientHello{ClientID: "dup", Name: "First", Version: 1},
	}

	first := dial()
	defer first.Close()
	first.WriteJSON(hello)

	var resp protocol.Message
	first.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := first.ReadJSON(&resp); err != nil || resp.Type != "server/hello" {
		t.Fatalf("first client handshake failed: %v (%s)", err, resp.Type)
	}

	second := dial()
	defer second.Close()
	second.WriteJSON(hello)

	second.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := second.ReadJSON(&resp); err != nil {
		t.Fatalf("failed to read duplicate response: %v", err)
	}
	if resp.Type != "server/error" {
		t.Errorf("expected server/error for duplicate ID, got %s", resp.Type)
	}
}
