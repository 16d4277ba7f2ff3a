// ABOUTME: Entry point for the Resonate relay receiver
// ABOUTME: Parses CLI flags and starts the receiver application
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/relay-go/internal/app"
	"github.com/Resonate-Protocol/relay-go/internal/discovery"
	"github.com/Resonate-Protocol/relay-go/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	serverAddr = flag.String("server", "", "Manual server address (skip mDNS)")
	port       = flag.Int("port", 8927, "Port for mDNS advertisement")
	name       = flag.String("name", "", "Receiver friendly name (default: hostname-relay)")
	bufferMs   = flag.Int("buffer-ms", 500, "Ring buffer depth in milliseconds")
	backend    = flag.String("backend", "malgo", "Output backend: malgo, oto, portaudio")
	frames     = flag.Int("frames", 480, "Frames per render callback")
	logFile    = flag.String("log-file", "resonate-relay.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	// Determine receiver name
	receiverName := *name
	if receiverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		receiverName = fmt.Sprintf("%s-relay", hostname)
	}

	if !useTUI {
		log.Printf("Starting Resonate Relay: %s", receiverName)
	}

	// TUI setup
	var tuiProg *tea.Program
	var volumeCtrl *ui.VolumeControl

	if useTUI {
		volumeCtrl = ui.NewVolumeControl()
		tuiProg, err = ui.Run(volumeCtrl)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	// Resolve a server address before handing off to the receiver
	var serverAddress, serverPath string
	if *serverAddr == "" {
		log.Printf("Starting server discovery...")
		disc := discovery.NewManager(discovery.Config{
			ServiceName: receiverName,
			Port:        *port,
		})
		disc.Advertise()

		server, err := disc.FindServer(10 * time.Second)
		if err != nil {
			log.Fatalf("Discovery failed: %v", err)
		}
		serverAddress = server.Addr()
		serverPath = server.Path
		log.Printf("Discovered server at %s", serverAddress)
		disc.Stop()
	} else {
		serverAddress = *serverAddr
	}

	receiver := app.New(app.Config{
		ServerAddr:        serverAddress,
		ServerPath:        serverPath,
		Port:              *port,
		Name:              receiverName,
		BufferMs:          *bufferMs,
		Backend:           *backend,
		FramesPerCallback: *frames,
		OnStateChange: func(state app.State) {
			updateTUI(ui.StatusMsg{
				Connected:  &state.Connected,
				ServerName: serverAddress,
				Streaming:  &state.Streaming,
				Codec:      state.Codec,
				SampleRate: state.SampleRate,
				Channels:   state.Channels,
				BitDepth:   state.BitDepth,
				Volume:     &state.Volume,
				Muted:      &state.Muted,
			})
		},
		OnError: func(err error) {
			log.Printf("Receiver error: %v", err)
		},
	})

	if err := receiver.Start(); err != nil {
		log.Fatalf("Failed to start receiver: %v", err)
	}

	// Volume control handler if TUI is enabled
	if volumeCtrl != nil {
		go handleVolumeControl(receiver, volumeCtrl)
	}

	// Stats update loop for TUI
	if tuiProg != nil {
		go statsUpdateLoop(receiver, updateTUI)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if volumeCtrl != nil {
		select {
		case <-volumeCtrl.Quit:
			log.Printf("Received quit signal from TUI")
		case <-sigChan:
			log.Printf("Shutdown signal received")
		}
	} else {
		<-sigChan
		log.Printf("Shutdown signal received")
	}

	receiver.Stop()

	if tuiProg != nil {
		tuiProg.Quit()
	}

	log.Printf("Receiver stopped")
}

// handleVolumeControl processes volume changes from TUI
func handleVolumeControl(receiver *app.Receiver, volumeCtrl *ui.VolumeControl) {
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			receiver.SetVolume(vol.Volume)
			receiver.SetMuted(vol.Muted)
		case <-volumeCtrl.Quit:
			return
		}
	}
}

// statsUpdateLoop periodically updates TUI with relay statistics
func statsUpdateLoop(receiver *app.Receiver, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		state := receiver.Snapshot()
		updateTUI(ui.StatusMsg{
			Connected:  &state.Connected,
			Streaming:  &state.Streaming,
			Codec:      state.Codec,
			SampleRate: state.SampleRate,
			Channels:   state.Channels,
			BitDepth:   state.BitDepth,
			Stats: &ui.StatsUpdate{
				Buffered:  state.Stats.Buffered,
				Capacity:  state.Capacity,
				Ingested:  state.Stats.Ingested,
				Rendered:  state.Stats.Rendered,
				Dropped:   state.Stats.Dropped,
				Underruns: state.Stats.Underruns,
			},
		})
	}
}
