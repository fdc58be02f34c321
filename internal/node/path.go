package node

import (
	"fmt"
	"strconv"
	"strings"
)

// Pather is anything that carries a node address
type Pather interface {
	NodeAddress() Address
}

// NodeAddress implements Pather
func (a Address) NodeAddress() Address {
	return a
}

// FormatPathFromNode formats a node's address into a URL path segment.
// A missing port is rendered as the protocol default so that the same node
// always maps to the same path.
func FormatPathFromNode(n Pather) string {
	a := n.NodeAddress()
	return fmt.Sprintf("%s/%s/%d", a.Protocol, a.IPAddress, a.EffectivePort())
}

// ParsePath is the inverse of FormatPathFromNode
func ParsePath(path string) (Address, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return Address{}, fmt.Errorf("invalid node path %q: expected protocol/ip/port", path)
	}

	protocol, err := ParseProtocol(parts[0])
	if err != nil {
		return Address{}, fmt.Errorf("invalid node path %q: %w", path, err)
	}

	if parts[1] == "" {
		return Address{}, fmt.Errorf("invalid node path %q: empty ip address", path)
	}

	port, err := strconv.Atoi(parts[2])
	if err != nil {
		return Address{}, fmt.Errorf("invalid node path %q: port must be an integer", path)
	}

	return Address{
		IPAddress: parts[1],
		Port:      &port,
		Protocol:  protocol,
	}, nil
}
