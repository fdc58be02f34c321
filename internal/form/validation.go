package form

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/muurk/bankconnect/internal/node"
)

// Validation messages
const (
	MsgRequired        = "This field is required"
	MsgIPAddressFormat = "IPv4 or IPv6 addresses only"
	MsgPortInteger     = "port must be an integer"
	MsgProtocolOneOf   = "protocol must be one of: http, https"
)

// ipAddressPattern matches a full IPv4 dotted quad or an uncompressed IPv6 literal
var ipAddressPattern = regexp.MustCompile(`^(?:(?:[0-9A-Fa-f]{1,4}:){7}[0-9A-Fa-f]{1,4}|(?:\d{1,3}\.){3}\d{1,3})$`)

// FieldErrors maps a field to its validation message
type FieldErrors map[Field]string

// Empty reports whether validation passed
func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// Error implements the error interface so FieldErrors can be returned directly
func (e FieldErrors) Error() string {
	var parts []string
	for _, f := range Fields {
		if msg, ok := e[f]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Label(), msg))
		}
	}
	return strings.Join(parts, "; ")
}

// rule checks one field value and returns a message on failure
type rule func(value string) string

// rules is evaluated in order per field; the first failure wins
var rules = map[Field][]rule{
	FieldIPAddress: {requiredRule(MsgRequired), ipAddressRule},
	FieldPort:      {integerRule},
	FieldProtocol:  {requiredRule(fmt.Sprintf("%s is a required field", FieldProtocol)), protocolRule},
}

// Validate checks every field and returns the failures
func Validate(v Values) FieldErrors {
	errs := FieldErrors{}
	for _, f := range Fields {
		if msg := ValidateField(f, v.Get(f)); msg != "" {
			errs[f] = msg
		}
	}
	return errs
}

// ValidateField checks a single field, returning "" when it is valid
func ValidateField(f Field, value string) string {
	for _, check := range rules[f] {
		if msg := check(value); msg != "" {
			return msg
		}
	}
	return ""
}

// IsIPAddress reports whether s is an IPv4 or IPv6 literal
func IsIPAddress(s string) bool {
	if ipAddressPattern.MatchString(s) {
		return true
	}
	// Compressed IPv6 forms such as fe80::1
	return strings.Contains(s, ":") && net.ParseIP(s) != nil
}

func requiredRule(msg string) rule {
	return func(value string) string {
		if strings.TrimSpace(value) == "" {
			return msg
		}
		return ""
	}
}

func ipAddressRule(value string) string {
	// Empty values are left to the required rule
	if value == "" {
		return ""
	}
	if !IsIPAddress(value) {
		return MsgIPAddressFormat
	}
	return ""
}

func integerRule(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if _, err := strconv.ParseInt(value, 10, 0); err != nil {
		return MsgPortInteger
	}
	return ""
}

func protocolRule(value string) string {
	if !node.Protocol(value).Valid() {
		return MsgProtocolOneOf
	}
	return ""
}
