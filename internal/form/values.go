package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/bankconnect/internal/node"
)

// DefaultIPAddress is the address the form starts with
const DefaultIPAddress = "143.110.137.54"

// Field names a form field
type Field string

const (
	FieldProtocol  Field = "protocol"
	FieldIPAddress Field = "ipAddress"
	FieldPort      Field = "port"
	FieldNickname  Field = "nickname"
)

// Fields lists the form fields in display order
var Fields = []Field{FieldProtocol, FieldIPAddress, FieldPort, FieldNickname}

// Label returns the display label for a field
func (f Field) Label() string {
	switch f {
	case FieldProtocol:
		return "Protocol"
	case FieldIPAddress:
		return "IP Address"
	case FieldPort:
		return "Port"
	case FieldNickname:
		return "Nickname"
	default:
		return string(f)
	}
}

// Required reports whether the field must be filled in
func (f Field) Required() bool {
	return f == FieldProtocol || f == FieldIPAddress
}

// Values is the raw text content of the connect form
type Values struct {
	IPAddress string
	Nickname  string
	Port      string
	Protocol  string
}

// DefaultValues returns the values the form is created with
func DefaultValues() Values {
	return Values{
		IPAddress: DefaultIPAddress,
		Nickname:  "",
		Port:      "",
		Protocol:  string(node.ProtocolHTTP),
	}
}

// Get returns the value of a field
func (v Values) Get(f Field) string {
	switch f {
	case FieldProtocol:
		return v.Protocol
	case FieldIPAddress:
		return v.IPAddress
	case FieldPort:
		return v.Port
	case FieldNickname:
		return v.Nickname
	default:
		return ""
	}
}

// Set returns a copy of v with the field replaced
func (v Values) Set(f Field, value string) Values {
	switch f {
	case FieldProtocol:
		v.Protocol = value
	case FieldIPAddress:
		v.IPAddress = value
	case FieldPort:
		v.Port = value
	case FieldNickname:
		v.Nickname = value
	}
	return v
}

// BuildRequest converts validated values into the address sent to the
// connector and the nickname passed alongside it.
// An empty port becomes a nil port.
func BuildRequest(v Values) (node.Address, string, error) {
	protocol, err := node.ParseProtocol(v.Protocol)
	if err != nil {
		return node.Address{}, "", err
	}

	addr := node.Address{
		IPAddress: v.IPAddress,
		Protocol:  protocol,
	}

	if port := strings.TrimSpace(v.Port); port != "" {
		p, err := strconv.ParseInt(port, 10, 0)
		if err != nil {
			return node.Address{}, "", fmt.Errorf("invalid port %q: %w", v.Port, err)
		}
		addr.Port = node.IntPtr(int(p))
	}

	return addr, v.Nickname, nil
}
