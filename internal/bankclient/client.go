package bankclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/bankconnect/internal/logging"
	"github.com/muurk/bankconnect/internal/node"
)

const (
	// ConfigPath is the endpoint every node serves its configuration from
	ConfigPath = "/config"

	// DefaultTimeout of zero means requests wait until the context is done
	DefaultTimeout = 0

	// DefaultMaxRetries is zero: a failed connect is reported, the user resubmits
	DefaultMaxRetries = 0

	// DefaultRetryDelay is the initial delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay caps exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second

	// maxBodySize bounds how much of a /config response is read
	maxBodySize = 1 << 20
)

// Client talks to a single bank or validator over its HTTP API
type Client struct {
	// BaseURL is the node's base URL (e.g., "http://143.110.137.54")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the number of extra attempts for retryable failures
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff doubles the delay after each failed attempt
	UseExponentialBackoff bool
}

// NewClient creates a client for the node at addr
func NewClient(addr node.Address) *Client {
	return NewClientWithURL(addr.BaseURL())
}

// NewClientWithURL creates a client with a full base URL
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:               strings.TrimRight(baseURL, "/"),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// SetTimeout sets the per-request timeout (0 disables it)
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Ping checks that the node answers on its config endpoint
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.fetch(ctx, ConfigPath)
	return err
}

// GetBankConfig retrieves and validates the bank's /config document
func (c *Client) GetBankConfig(ctx context.Context) (*node.BankConfig, error) {
	body, err := c.getWithRetry(ctx, ConfigPath)
	if err != nil {
		return nil, err
	}

	var cfg node.BankConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, NewParseError("failed to parse bank config", err)
	}

	if cfg.NodeType != node.NodeTypeBank {
		return nil, NewValidationError("Node is not a bank")
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewValidationError(err.Error())
	}

	return &cfg, nil
}

// GetValidatorConfig retrieves a validator's /config document
func (c *Client) GetValidatorConfig(ctx context.Context) (*node.ValidatorConfig, error) {
	body, err := c.getWithRetry(ctx, ConfigPath)
	if err != nil {
		return nil, err
	}

	var cfg node.ValidatorConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, NewParseError("failed to parse validator config", err)
	}

	if cfg.NodeType == node.NodeTypeBank {
		return nil, NewValidationError("Node is not a validator")
	}

	return &cfg, nil
}

// getWithRetry performs a GET, retrying retryable failures with backoff
func (c *Client) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ClassifyNetworkError(ctx.Err(), c.BaseURL)
			case <-time.After(currentDelay):
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		body, err := c.fetch(ctx, path)
		if err == nil {
			return body, nil
		}

		lastErr = err
		logging.Debug("Node request failed",
			zap.String("url", c.BaseURL+path),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		if !IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// fetch performs a single GET and returns the body of a 200 response
func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, NewParseError(fmt.Sprintf("invalid node URL %q", c.BaseURL), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, ClassifyNetworkError(err, c.BaseURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, ClassifyNetworkError(err, c.BaseURL)
	}

	return body, nil
}
