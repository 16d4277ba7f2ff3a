// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests TXT record construction, answer parsing, and lifecycle
package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	config := Config{
		ServiceName: "Test Relay",
		Port:        8927,
	}

	mgr := NewManager(config)
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
}

func TestTXTRecordsCarryPathAndInfo(t *testing.T) {
	records := txtRecords(Config{
		ServiceName: "Test Server",
		Port:        8927,
		ServerMode:  true,
		Info: map[string]string{
			"rate":  "48000",
			"codec": "pcm",
		},
	})

	want := []string{"path=/relay", "codec=pcm", "rate=48000"}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %v", len(want), records)
	}
	for i, w := range want {
		if records[i] != w {
			t.Errorf("record %d: expected %q, got %q", i, w, records[i])
		}
	}
}

func TestParseEntry(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "Living Room Server",
		AddrV4:     net.ParseIP("192.168.1.5"),
		Port:       8927,
		InfoFields: []string{"path=/custom", "codec=pcm", "rate=48000", "garbage"},
	}

	server := parseEntry(entry)
	if server == nil {
		t.Fatal("expected entry to parse")
	}
	if server.Addr() != "192.168.1.5:8927" {
		t.Errorf("expected addr 192.168.1.5:8927, got %s", server.Addr())
	}
	if server.Path != "/custom" {
		t.Errorf("expected path /custom, got %s", server.Path)
	}
	if server.Info["codec"] != "pcm" || server.Info["rate"] != "48000" {
		t.Errorf("unexpected info: %v", server.Info)
	}
	if _, ok := server.Info["garbage"]; ok {
		t.Error("malformed TXT field should be skipped")
	}
}

func TestParseEntryDefaultsPath(t *testing.T) {
	server := parseEntry(&mdns.ServiceEntry{
		Name:   "Bare Server",
		AddrV4: net.ParseIP("10.0.0.2"),
		Port:   8927,
	})
	if server == nil {
		t.Fatal("expected entry to parse")
	}
	if server.Path != DefaultPath {
		t.Errorf("expected default path %s, got %s", DefaultPath, server.Path)
	}
}

func TestParseEntrySkipsEntriesWithoutAddress(t *testing.T) {
	if parseEntry(nil) != nil {
		t.Error("nil entry should not parse")
	}
	if parseEntry(&mdns.ServiceEntry{Name: "No Addr", Port: 8927}) != nil {
		t.Error("entry without IPv4 address should not parse")
	}
}

func TestStopClosesContext(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Test Relay", Port: 8927})
	mgr.Stop()

	select {
	case <-mgr.ctx.Done():
	default:
		t.Error("expected context to be cancelled after Stop")
	}
}
