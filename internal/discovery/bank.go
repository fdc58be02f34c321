package discovery

import (
	"fmt"
	"time"

	"github.com/muurk/bankconnect/internal/node"
)

// TXT record keys advertised by nodes
const (
	TxtNodeType = "node_type"
	TxtProtocol = "protocol"
	TxtNickname = "nickname"
)

// Bank is a bank node found on the local network
type Bank struct {
	// Instance is the mDNS service instance name
	Instance string

	// Hostname is the mDNS hostname (e.g., "bank-1.local.")
	Hostname string

	// Address is where the bank's API listens
	Address node.Address

	// Metadata holds the raw TXT record data
	Metadata map[string]string

	DiscoveredAt time.Time
}

// String returns a human-readable description of the bank
func (b *Bank) String() string {
	return fmt.Sprintf("Bank %s (%s) at %s", b.Instance, b.Hostname, b.Address.BaseURL())
}

// Nickname returns the advertised nickname, falling back to the instance name
func (b *Bank) Nickname() string {
	if n := b.GetMetadata(TxtNickname); n != "" {
		return n
	}
	return b.Instance
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Bank) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}
