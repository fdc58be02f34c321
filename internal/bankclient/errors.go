package bankclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeHTTP indicates a non-200 response from the node
	ErrTypeHTTP
	// ErrTypeParse indicates the node returned a document we could not decode
	ErrTypeParse
	// ErrTypeValidation indicates the node answered but is not what we asked for
	ErrTypeValidation
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the node refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeCanceled indicates the caller abandoned the request
	ErrTypeCanceled
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// BankError is an error that occurred while talking to a node
type BankError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Err        error
	NodeURL    string
	Retryable  bool
}

// Error implements the error interface
func (e *BankError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *BankError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a typed BankError
func ClassifyNetworkError(err error, nodeURL string) *BankError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &BankError{Type: ErrTypeCanceled, Message: "Request canceled", Err: err, NodeURL: nodeURL}
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &BankError{Type: ErrTypeTimeout, Message: "Request timed out", Err: err, NodeURL: nodeURL, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &BankError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
			NodeURL: nodeURL,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &BankError{Type: ErrTypeConnectionRefused, Message: "Connection refused", Err: err, NodeURL: nodeURL, Retryable: true}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &BankError{Type: ErrTypeNetwork, Message: "Host unreachable", Err: err, NodeURL: nodeURL, Retryable: true}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &BankError{Type: ErrTypeNetwork, Message: "Network unreachable", Err: err, NodeURL: nodeURL, Retryable: true}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err, nodeURL)
	}

	return &BankError{Type: ErrTypeNetwork, Message: "Network error occurred", Err: err, NodeURL: nodeURL, Retryable: true}
}

// NewHTTPError creates an error for an unexpected status code
func NewHTTPError(statusCode int, message string) *BankError {
	return &BankError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a decoding error
func NewParseError(message string, err error) *BankError {
	return &BankError{Type: ErrTypeParse, Message: message, Err: err}
}

// NewValidationError creates an error for a node that answered with the wrong kind of document
func NewValidationError(message string) *BankError {
	return &BankError{Type: ErrTypeValidation, Message: message}
}

// IsBankError reports whether err carries a BankError anywhere in its chain
func IsBankError(err error) bool {
	var bankErr *BankError
	return errors.As(err, &bankErr)
}

// IsNetworkError checks if an error is network related (timeout, refused, DNS included)
func IsNetworkError(err error) bool {
	var bankErr *BankError
	if !errors.As(err, &bankErr) {
		return false
	}
	switch bankErr.Type {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
		return true
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var bankErr *BankError
	if errors.As(err, &bankErr) {
		return bankErr.Retryable
	}
	return false
}

// ShortMessage returns a concise, user-facing message for an error.
// It is what the connect screen shows in its error toast.
func ShortMessage(err error) string {
	var bankErr *BankError
	if !errors.As(err, &bankErr) {
		return err.Error()
	}

	switch bankErr.Type {
	case ErrTypeTimeout:
		return "Node not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Connection refused"
	case ErrTypeDNS:
		return "Cannot resolve node hostname"
	case ErrTypeNetwork:
		return bankErr.Message
	case ErrTypeHTTP:
		return fmt.Sprintf("Node returned HTTP %d", bankErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse node response"
	case ErrTypeCanceled:
		return "Connection attempt canceled"
	default:
		return bankErr.Message
	}
}

// TroubleshootingHint returns multi-line advice for the CLI error box
func TroubleshootingHint(err error) []string {
	var bankErr *BankError
	if !errors.As(err, &bankErr) {
		return nil
	}

	switch bankErr.Type {
	case ErrTypeTimeout:
		return []string{
			"Check that the bank is online",
			"Try again with a longer --timeout",
		}
	case ErrTypeConnectionRefused:
		return []string{
			"Verify the port number",
			"Check whether the bank expects https instead of http",
		}
	case ErrTypeDNS:
		return []string{"Use the node's IP address instead of a hostname"}
	case ErrTypeHTTP:
		if bankErr.StatusCode == 404 {
			return []string{"The address answered but does not serve /config - is it a node?"}
		}
		return []string{"The node reported an internal error; try again later"}
	case ErrTypeParse, ErrTypeValidation:
		return []string{"Make sure the address points at a bank, not a validator"}
	default:
		return []string{
			"Check your network connection",
			"Verify the IP address is correct",
		}
	}
}
