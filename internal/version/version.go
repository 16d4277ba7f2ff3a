// ABOUTME: Version constants for the relay
// ABOUTME: Single source of truth for product identification
package version

const (
	// Product is the product name reported to servers
	Product = "Resonate Relay"

	// Manufacturer is the software vendor
	Manufacturer = "Resonate"

	// Version is the software version
	Version = "0.1.0"
)
