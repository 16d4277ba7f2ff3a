// ABOUTME: Entry point for the relay test-tone server
// ABOUTME: Parses CLI flags and starts the WebSocket server
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/relay-go/internal/discovery"
	"github.com/Resonate-Protocol/relay-go/internal/server"
)

var (
	port    = flag.Int("port", 8927, "WebSocket server port")
	name    = flag.String("name", "", "Server friendly name (default: hostname-relay-server)")
	logFile = flag.String("log-file", "relay-server.log", "Log file path")
	noMDNS  = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
)

func main() {
	flag.Parse()

	// Set up logging (both file and console)
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(os.Stdout, f))

	// Determine server name
	serverName := *name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-relay-server", hostname)
	}

	log.Printf("Starting Relay Server: %s on port %d", serverName, *port)
	log.Printf("Logging to: %s", *logFile)
	log.Printf("Press Ctrl-C to stop")

	srv := server.New(server.Config{
		Port: *port,
		Name: serverName,
	})

	// Advertise via mDNS so receivers can find us
	var mdnsManager *discovery.Manager
	if !*noMDNS {
		mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: serverName,
			Port:        *port,
			ServerMode:  true,
			Info: map[string]string{
				"codec": "pcm",
				"rate":  fmt.Sprintf("%d", server.StreamSampleRate),
				"ch":    fmt.Sprintf("%d", server.StreamChannels),
			},
		})
		if err := mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Printf("Shutdown signal received")
		srv.Stop()
		if mdnsManager != nil {
			mdnsManager.Stop()
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	log.Printf("Server stopped")
}
