// ABOUTME: mDNS discovery for relay endpoints
// ABOUTME: Advertises receivers and servers and resolves servers to dial
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const (
	receiverService = "_resonate-relay._tcp"
	serverService   = "_resonate-relay-server._tcp"

	// DefaultPath is the WebSocket endpoint used when a server's TXT
	// record does not advertise one.
	DefaultPath = "/relay"
)

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	ServerMode  bool              // advertise as a relay server instead of a receiver
	Info        map[string]string // extra TXT pairs (stream format, buffer depth)
}

// ServerInfo describes a discovered relay server
type ServerInfo struct {
	Name string
	Host string
	Port int
	Path string            // WebSocket endpoint path from the TXT record
	Info map[string]string // remaining TXT pairs
}

// Addr returns the host:port dial address
func (s *ServerInfo) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
	}
}

// txtRecords builds the advertised TXT strings: the endpoint path first,
// then the extra pairs in stable key order.
func txtRecords(config Config) []string {
	records := []string{"path=" + DefaultPath}

	keys := make([]string, 0, len(config.Info))
	for k := range config.Info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		records = append(records, k+"="+config.Info[k])
	}

	return records
}

// Advertise publishes this endpoint via mDNS until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	serviceType := receiverService
	if m.config.ServerMode {
		serviceType = serverService
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		serviceType,
		"",
		"",
		m.config.Port,
		ips,
		txtRecords(m.config),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)",
		m.config.ServiceName, m.config.Port, serviceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// parseEntry converts an mDNS answer into a ServerInfo. Answers without an
// IPv4 address are unusable and yield nil.
func parseEntry(entry *mdns.ServiceEntry) *ServerInfo {
	if entry == nil || entry.AddrV4 == nil {
		return nil
	}

	server := &ServerInfo{
		Name: entry.Name,
		Host: entry.AddrV4.String(),
		Port: entry.Port,
		Path: DefaultPath,
		Info: make(map[string]string),
	}

	for _, field := range entry.InfoFields {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		if k == "path" {
			server.Path = v
			continue
		}
		server.Info[k] = v
	}

	return server
}

// FindServer repeats one-shot queries until a relay server answers or the
// timeout expires.
func (m *Manager) FindServer(timeout time.Duration) (*ServerInfo, error) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		select {
		case <-m.ctx.Done():
			return nil, fmt.Errorf("discovery stopped")
		default:
		}

		if server := m.queryOnce(); server != nil {
			log.Printf("Discovered server: %s at %s (path %s)",
				server.Name, server.Addr(), server.Path)
			return server, nil
		}
	}

	return nil, fmt.Errorf("no relay server found within %s", timeout)
}

// Browse continuously searches for relay servers, delivering each distinct
// server once on the Servers channel
func (m *Manager) Browse() {
	go m.browseLoop()
}

func (m *Manager) browseLoop() {
	seen := make(map[string]bool)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		server := m.queryOnce()
		if server == nil || seen[server.Addr()] {
			continue
		}
		seen[server.Addr()] = true

		log.Printf("Discovered server: %s at %s (path %s)",
			server.Name, server.Addr(), server.Path)

		select {
		case m.servers <- server:
		case <-m.ctx.Done():
			return
		}
	}
}

// queryOnce issues a single mDNS query and returns the first usable answer
func (m *Manager) queryOnce() *ServerInfo {
	entries := make(chan *mdns.ServiceEntry, 10)
	found := make(chan *ServerInfo, 1)

	go func() {
		defer close(found)
		for entry := range entries {
			if server := parseEntry(entry); server != nil {
				select {
				case found <- server:
				default:
				}
			}
		}
	}()

	mdns.Query(&mdns.QueryParam{
		Service: serverService,
		Domain:  "local",
		Timeout: time.Second,
		Entries: entries,
	})
	close(entries)

	return <-found
}

// Servers returns the channel of discovered servers
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns the machine's non-loopback IPv4 addresses
func getLocalIPs() ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			ips = append(ips, ip4)
		}
	}

	if len(ips) == 0 {
		return nil, fmt.Errorf("no usable IPv4 address")
	}
	return ips, nil
}
