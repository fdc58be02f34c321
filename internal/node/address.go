package node

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Protocol is the URL scheme used to reach a node
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
)

// Protocols lists the supported protocols in display order
var Protocols = []Protocol{ProtocolHTTP, ProtocolHTTPS}

// Valid reports whether p is one of the supported protocols
func (p Protocol) Valid() bool {
	return p == ProtocolHTTP || p == ProtocolHTTPS
}

// DefaultPort returns the well-known port for the protocol
func (p Protocol) DefaultPort() int {
	if p == ProtocolHTTPS {
		return 443
	}
	return 80
}

// WebSocketScheme returns the websocket scheme matching the protocol
func (p Protocol) WebSocketScheme() string {
	if p == ProtocolHTTPS {
		return "wss"
	}
	return "ws"
}

// ParseProtocol converts a string into a Protocol
func ParseProtocol(s string) (Protocol, error) {
	p := Protocol(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unsupported protocol %q (expected http or https)", s)
	}
	return p, nil
}

// Address identifies a node on the network.
// Port is nil when the user did not provide one.
type Address struct {
	IPAddress string   `json:"ip_address" yaml:"ip_address"`
	Port      *int     `json:"port" yaml:"port"`
	Protocol  Protocol `json:"protocol" yaml:"protocol"`
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// EffectivePort returns the explicit port, or the protocol default when unset
func (a Address) EffectivePort() int {
	if a.Port != nil {
		return *a.Port
	}
	return a.Protocol.DefaultPort()
}

// HostPort returns host:port suitable for dialing
func (a Address) HostPort() string {
	return net.JoinHostPort(a.IPAddress, strconv.Itoa(a.EffectivePort()))
}

// BaseURL returns the HTTP base URL for the node (e.g., "http://10.0.0.5:8080").
// The port is omitted when not set; IPv6 hosts are bracketed.
func (a Address) BaseURL() string {
	return string(a.Protocol) + "://" + a.host()
}

// WebSocketURL returns the websocket URL for the given path on the node
func (a Address) WebSocketURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return a.Protocol.WebSocketScheme() + "://" + a.host() + path
}

func (a Address) host() string {
	if a.Port != nil {
		return net.JoinHostPort(a.IPAddress, strconv.Itoa(*a.Port))
	}
	if strings.Contains(a.IPAddress, ":") {
		return "[" + a.IPAddress + "]"
	}
	return a.IPAddress
}

// String returns a human-readable representation of the address
func (a Address) String() string {
	return a.BaseURL()
}

// Equal reports whether two addresses point at the same node
func (a Address) Equal(b Address) bool {
	return a.Protocol == b.Protocol &&
		a.IPAddress == b.IPAddress &&
		a.EffectivePort() == b.EffectivePort()
}
