// ABOUTME: Bubbletea model for receiver TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Connection
	connected  bool
	serverName string

	// Stream
	streaming  bool
	codec      string
	sampleRate int
	channels   int
	bitDepth   int

	// Playback
	volume int
	muted  bool

	// Ring buffer
	buffered int
	capacity int

	// Stats
	ingested  int64
	rendered  int64
	dropped   int64
	underruns int64

	// Control channels back to the receiver
	volumeCtrl *VolumeControl

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderStreamInfo()
	s += m.renderControls()
	s += m.renderStats()
	s += m.renderHelp()

	return s
}

// renderHeader renders connection status
func (m Model) renderHeader() string {
	connStatus := "Disconnected"
	if m.connected {
		connStatus = fmt.Sprintf("Connected to %s", m.serverName)
	}

	return fmt.Sprintf(`┌─ Resonate Relay ─────────────────────────────────────┐
│ Status: %-45s │
├──────────────────────────────────────────────────────┤
`, truncate(connStatus, 45))
}

// renderStreamInfo renders the current stream format
func (m Model) renderStreamInfo() string {
	if !m.streaming || m.codec == "" {
		return "│ No stream                                            │\n"
	}

	return fmt.Sprintf("│ Format: %s %dHz %s %d-bit%-20s │\n",
		m.codec, m.sampleRate, channelName(m.channels), m.bitDepth, "")
}

// renderControls renders volume and buffer fill
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " 🔇"
	}

	volumeBar := renderBar(m.volume, 100, 10)

	fillPct := 0
	bufferBar := renderBar(0, 1, 20)
	if m.capacity > 0 {
		fillPct = m.buffered * 100 / m.capacity
		bufferBar = renderBar(m.buffered, m.capacity, 20)
	}

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %d%%%s%-17s │\n"+
		"│ Buffer: [%s] %d%% (%d/%d)%-8s │\n",
		volumeBar, m.volume, muteIcon, "",
		bufferBar, fillPct, m.buffered, m.capacity, "")
}

// renderStats renders relay statistics
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ In: %d  Out: %d  Dropped: %d  Underruns: %d%-4s │
│                                                      │
`, m.ingested, m.rendered, m.dropped, m.underruns, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  q:Quit                          │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.volumeCtrl != nil {
			select {
			case m.volumeCtrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.volume += 5
		if m.volume > 100 {
			m.volume = 100
		}
		m.sendVolumeChange()
	case "down":
		m.volume -= 5
		if m.volume < 0 {
			m.volume = 0
		}
		m.sendVolumeChange()
	case "m":
		m.muted = !m.muted
		m.sendVolumeChange()
	}

	return m, nil
}

// sendVolumeChange pushes the change to the receiver without blocking
func (m Model) sendVolumeChange() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.ServerName != "" {
		m.serverName = msg.ServerName
	}
	if msg.Streaming != nil {
		m.streaming = *msg.Streaming
	}
	if msg.Codec != "" {
		m.codec = msg.Codec
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bitDepth = msg.BitDepth
	}
	if msg.Volume != nil {
		m.volume = *msg.Volume
	}
	if msg.Muted != nil {
		m.muted = *msg.Muted
	}
	if msg.Stats != nil {
		m.buffered = msg.Stats.Buffered
		m.capacity = msg.Stats.Capacity
		m.ingested = msg.Stats.Ingested
		m.rendered = msg.Stats.Rendered
		m.dropped = msg.Stats.Dropped
		m.underruns = msg.Stats.Underruns
	}
}

// StatusMsg updates TUI state. Pointer fields distinguish "unchanged" from a
// genuine zero value, so counters reset when a stream tears down.
type StatusMsg struct {
	Connected  *bool
	ServerName string
	Streaming  *bool
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
	Volume     *int
	Muted      *bool
	Stats      *StatsUpdate
}

// StatsUpdate carries a full snapshot of the relay counters and gauge
type StatsUpdate struct {
	Buffered  int
	Capacity  int
	Ingested  int64
	Rendered  int64
	Dropped   int64
	Underruns int64
}

// Utility functions
func renderBar(value, max, width int) string {
	if max <= 0 {
		max = 1
	}
	filled := (value * width) / max
	if filled > width {
		filled = width
	}
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
