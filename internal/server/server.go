// ABOUTME: Relay server implementation
// ABOUTME: Manages WebSocket connections and streams timestamped PCM chunks
package server

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Resonate-Protocol/relay-go/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// ProtocolVersion is the relay protocol version
	ProtocolVersion = 1

	// Stream format pushed to every connected receiver
	StreamSampleRate = 48000
	StreamChannels   = 1
	StreamBitDepth   = 16

	// ChunkDuration is the length of each broadcast chunk
	ChunkDuration = 20 * time.Millisecond
)

// Config holds server configuration
type Config struct {
	Port int
	Name string
}

// Server streams a test tone to connected relay receivers
type Server struct {
	config   Config
	serverID string

	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// Server clock (monotonic microseconds)
	clockStart time.Time

	tone *ToneSource

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client represents a connected receiver
type Client struct {
	ID   string
	Name string
	Conn *websocket.Conn

	// State reported by the receiver
	State  string
	Volume int
	Muted  bool

	// Output channel for messages
	sendChan chan interface{}

	mu sync.RWMutex
}

// New creates a new server instance
func New(config Config) *Server {
	return &Server{
		config:   config,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local network deployments only, accept all origins
				return true
			},
		},
		clients:    make(map[string]*Client),
		clockStart: time.Now(),
		tone:       NewToneSource(StreamSampleRate),
		stopChan:   make(chan struct{}),
	}
}

// Start runs the server until Stop is called
func (s *Server) Start() error {
	log.Printf("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	s.mux.HandleFunc("/relay", s.handleWebSocket)

	// Start chunk broadcaster
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.broadcastLoop()
	}()

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s", addr)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	// Reject new connections during shutdown
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)

	s.handleConnection(conn)
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	// Wait for client/hello
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Printf("Error reading hello: %v", err)
		return
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	if msg.Type != "client/hello" {
		log.Printf("Expected client/hello, got %s", msg.Type)
		return
	}

	helloData, err := json.Marshal(msg.Payload)
	if err != nil {
		log.Printf("Error marshaling hello payload: %v", err)
		return
	}

	var hello protocol.ClientHello
	if err := json.Unmarshal(helloData, &hello); err != nil {
		log.Printf("Error unmarshaling client hello: %v", err)
		return
	}

	if hello.ClientID == "" {
		log.Printf("Client hello missing ClientID")
		return
	}
	if hello.Name == "" {
		log.Printf("Client hello missing Name")
		return
	}

	log.Printf("Client hello: %s (ID: %s, buffer: %d samples)",
		hello.Name, hello.ClientID, hello.BufferCapacity)

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		State:    "idle",
		Volume:   100,
		Muted:    false,
		sendChan: make(chan interface{}, 100),
	}

	// Queue the handshake and stream format before registering so no
	// broadcast chunk can land ahead of stream/start.
	serverHello := protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  ProtocolVersion,
	}
	s.sendMessage(client, "server/hello", serverHello)
	s.sendMessage(client, "stream/start", protocol.StreamStart{
		Codec:      "pcm",
		SampleRate: StreamSampleRate,
		Channels:   StreamChannels,
		BitDepth:   StreamBitDepth,
	})

	// Check for duplicate client ID and register atomically
	s.clientsMu.Lock()
	if existing, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate",
			hello.ClientID, existing.Name)

		errorMsg := protocol.Message{
			Type: "server/error",
			Payload: map[string]string{
				"error":   "duplicate_client_id",
				"message": "Client ID already connected",
			},
		}
		if data, err := json.Marshal(errorMsg); err == nil {
			conn.WriteMessage(websocket.TextMessage, data)
		}
		return
	}

	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		close(client.sendChan)
		log.Printf("Client disconnected: %s", client.Name)
	}()

	// Start writer goroutine
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	// Read messages from client
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		s.handleClientMessage(client, data)
	}
}

// clientWriter sends messages to the client
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}

			switch v := msg.(type) {
			case []byte:
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					log.Printf("Error writing binary message: %v", err)
					return
				}
			default:
				data, err := json.Marshal(v)
				if err != nil {
					log.Printf("Error marshaling message: %v", err)
					continue
				}
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
					log.Printf("Error writing text message: %v", err)
					return
				}
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage processes messages from clients
func (s *Server) handleClientMessage(client *Client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	switch msg.Type {
	case "client/update":
		s.handleClientUpdate(client, msg.Payload)
	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// handleClientUpdate handles state updates from receivers
func (s *Server) handleClientUpdate(client *Client, payload interface{}) {
	stateData, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling state payload: %v", err)
		return
	}

	var state protocol.ClientState
	if err := json.Unmarshal(stateData, &state); err != nil {
		log.Printf("Error unmarshaling client state: %v", err)
		return
	}

	client.mu.Lock()
	client.State = state.State
	client.Volume = state.Volume
	client.Muted = state.Muted
	client.mu.Unlock()

	log.Printf("Client %s state: %s (vol: %d, muted: %v, buffered: %d)",
		client.Name, state.State, state.Volume, state.Muted, state.Buffered)
}

// broadcastLoop pushes one tone chunk per tick to every connected client
func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(ChunkDuration)
	defer ticker.Stop()

	samplesPerChunk := StreamSampleRate * int(ChunkDuration/time.Millisecond) / 1000
	samples := make([]int16, samplesPerChunk)
	payload := make([]byte, samplesPerChunk*2)

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.tone.Read(samples)
			for i, v := range samples {
				binary.LittleEndian.PutUint16(payload[i*2:], uint16(v))
			}

			frame := protocol.EncodeAudioFrame(s.getClockMicros(), payload)

			s.clientsMu.RLock()
			for _, client := range s.clients {
				if err := s.sendBinary(client, frame); err != nil {
					log.Printf("Dropping chunk for %s: %v", client.Name, err)
				}
			}
			s.clientsMu.RUnlock()
		}
	}
}

// SendCommand broadcasts a control command to all clients
func (s *Server) SendCommand(cmd protocol.ServerCommand) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		if err := s.sendMessage(client, "server/command", cmd); err != nil {
			log.Printf("Error sending command to %s: %v", client.Name, err)
		}
	}
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// sendMessage queues a JSON message for a client
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case client.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// sendBinary queues binary data for a client
func (s *Server) sendBinary(client *Client, data []byte) error {
	select {
	case client.sendChan <- data:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// getClockMicros returns the server clock in microseconds
func (s *Server) getClockMicros() int64 {
	return time.Since(s.clockStart).Microseconds()
}
