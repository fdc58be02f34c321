package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/bankconnect/internal/logging"
	"github.com/muurk/bankconnect/internal/node"
)

const (
	// ServiceType is the mDNS service type nodes advertise their API under
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for a scan
	DefaultScanTimeout = 5 * time.Second
)

// Scanner handles mDNS bank discovery
type Scanner struct {
	// Timeout is the maximum time to wait for responses
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForBanks browses the local network until the timeout or ctx expires and
// returns every bank that answered. Duplicate answers for the same address
// are collapsed.
func (s *Scanner) ScanForBanks(ctx context.Context) ([]*Bank, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu    sync.Mutex
		banks []*Bank
		seen  = make(map[string]bool)
	)

	go func() {
		for entry := range entries {
			bank := parseServiceEntry(entry)
			if bank == nil {
				continue
			}
			key := node.FormatPathFromNode(bank.Address)

			mu.Lock()
			if !seen[key] {
				seen[key] = true
				banks = append(banks, bank)
				logging.Debug("Discovered bank", zap.String("address", bank.Address.BaseURL()))
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]*Bank(nil), banks...), nil
}

// parseServiceEntry converts a zeroconf service entry to a Bank.
// Returns nil unless the entry advertises node_type=BANK and has an address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Bank {
	if entry == nil {
		return nil
	}

	metadata := parseTXT(entry.Text)
	if !strings.EqualFold(metadata[TxtNodeType], string(node.NodeTypeBank)) {
		return nil
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	protocol := node.ProtocolHTTP
	if p, err := node.ParseProtocol(metadata[TxtProtocol]); err == nil {
		protocol = p
	}

	// The protocol's default port is left implicit, as a user would type it
	var port *int
	if entry.Port != 0 && entry.Port != protocol.DefaultPort() {
		port = node.IntPtr(entry.Port)
	}

	return &Bank{
		Instance: entry.Instance,
		Hostname: entry.HostName,
		Address: node.Address{
			IPAddress: ip,
			Port:      port,
			Protocol:  protocol,
		},
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" TXT strings; keys without a value map to ""
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	return metadata
}

// PortString renders the bank's port the way the connect form expects it
func (b *Bank) PortString() string {
	if b.Address.Port == nil {
		return ""
	}
	return strconv.Itoa(*b.Address.Port)
}

// QuickScan performs a fast scan with a 3-second timeout
func QuickScan(ctx context.Context) ([]*Bank, error) {
	scanner := NewScanner()
	scanner.Timeout = 3 * time.Second
	return scanner.ScanForBanks(ctx)
}
