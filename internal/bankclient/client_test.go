package bankclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/bankconnect/internal/node"
)

const mockBankConfig = `{
  "primary_validator": {
    "account_number": "ad1f8845c6a1abb6011a2a434a079a087c460657aad54329a84b406dce8bf314",
    "ip_address": "157.230.75.212",
    "node_identifier": "2e86f48216567302527b69eae6c6a188097ed3a9741f43cc3723e570cf47644c",
    "port": null,
    "protocol": "http",
    "version": "v1.0",
    "default_transaction_fee": 1,
    "root_account_file": "http://157.230.75.212/media/root_account_file.json",
    "root_account_file_hash": "0a3b5a4b1ba9a8dfe6b1e0a2a3c9b5c2",
    "seed_block_identifier": "",
    "daily_confirmation_rate": null,
    "node_type": "PRIMARY_VALIDATOR"
  },
  "account_number": "5e12967707909e62b2bb2036c209085a784fabbc3deccefee70052b6181c8ed8",
  "ip_address": "143.110.137.54",
  "node_identifier": "d5356888dc9303e44ce52b1e06c3165a7759b9df1e6a6dfbd33ee1c3df1ab4d1",
  "port": null,
  "protocol": "http",
  "version": "v1.0",
  "default_transaction_fee": 1,
  "node_type": "BANK"
}`

const mockValidatorConfig = `{
  "account_number": "ad1f8845c6a1abb6011a2a434a079a087c460657aad54329a84b406dce8bf314",
  "ip_address": "157.230.75.212",
  "node_identifier": "2e86f48216567302527b69eae6c6a188097ed3a9741f43cc3723e570cf47644c",
  "port": null,
  "protocol": "http",
  "version": "v1.0",
  "default_transaction_fee": 1,
  "node_type": "PRIMARY_VALIDATOR"
}`

func newConfigServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Request method = %s, want GET", r.Method)
		}
		if r.URL.Path != ConfigPath {
			t.Errorf("Request path = %s, want %s", r.URL.Path, ConfigPath)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewClient(t *testing.T) {
	client := NewClient(node.Address{IPAddress: "10.0.0.5", Port: node.IntPtr(8080), Protocol: node.ProtocolHTTPS})

	if client.BaseURL != "https://10.0.0.5:8080" {
		t.Errorf("BaseURL = %s, want https://10.0.0.5:8080", client.BaseURL)
	}
	if client.HTTPClient == nil {
		t.Fatal("HTTPClient should not be nil")
	}
	if client.HTTPClient.Timeout != 0 {
		t.Errorf("Timeout = %v, want no timeout", client.HTTPClient.Timeout)
	}
	if client.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", client.MaxRetries)
	}
}

func TestNewClientWithURL_TrimsSlash(t *testing.T) {
	client := NewClientWithURL("http://10.0.0.5/")
	if client.BaseURL != "http://10.0.0.5" {
		t.Errorf("BaseURL = %s", client.BaseURL)
	}
}

func TestGetBankConfig_Success(t *testing.T) {
	server := newConfigServer(t, http.StatusOK, mockBankConfig)

	cfg, err := NewClientWithURL(server.URL).GetBankConfig(context.Background())
	if err != nil {
		t.Fatalf("GetBankConfig() error = %v", err)
	}

	if cfg.IPAddress != "143.110.137.54" {
		t.Errorf("IPAddress = %s", cfg.IPAddress)
	}
	if cfg.Port != nil {
		t.Errorf("Port = %v, want nil", *cfg.Port)
	}
	if cfg.NodeType != node.NodeTypeBank {
		t.Errorf("NodeType = %s", cfg.NodeType)
	}
	if cfg.PrimaryValidator == nil || cfg.PrimaryValidator.IPAddress != "157.230.75.212" {
		t.Errorf("PrimaryValidator = %+v", cfg.PrimaryValidator)
	}
}

func TestGetBankConfig_NotABank(t *testing.T) {
	server := newConfigServer(t, http.StatusOK, mockValidatorConfig)

	_, err := NewClientWithURL(server.URL).GetBankConfig(context.Background())
	if err == nil {
		t.Fatal("GetBankConfig() should reject a validator")
	}
	if ShortMessage(err) != "Node is not a bank" {
		t.Errorf("ShortMessage() = %q", ShortMessage(err))
	}
}

func TestGetBankConfig_HTTPError(t *testing.T) {
	server := newConfigServer(t, http.StatusNotFound, "not found")

	_, err := NewClientWithURL(server.URL).GetBankConfig(context.Background())
	if err == nil {
		t.Fatal("GetBankConfig() should fail on 404")
	}

	bankErr, ok := err.(*BankError)
	if !ok {
		t.Fatalf("error type = %T, want *BankError", err)
	}
	if bankErr.Type != ErrTypeHTTP || bankErr.StatusCode != http.StatusNotFound {
		t.Errorf("error = %+v", bankErr)
	}
	if IsRetryable(err) {
		t.Error("404 should not be retryable")
	}
}

func TestGetBankConfig_ParseError(t *testing.T) {
	server := newConfigServer(t, http.StatusOK, "<html>not json</html>")

	_, err := NewClientWithURL(server.URL).GetBankConfig(context.Background())
	if err == nil {
		t.Fatal("GetBankConfig() should fail on invalid JSON")
	}
	if ShortMessage(err) != "Failed to parse node response" {
		t.Errorf("ShortMessage() = %q", ShortMessage(err))
	}
}

func TestGetBankConfig_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(mockBankConfig))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	client.SetRetry(3, time.Millisecond)

	if _, err := client.GetBankConfig(context.Background()); err != nil {
		t.Fatalf("GetBankConfig() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGetBankConfig_NoRetryByDefault(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewClientWithURL(server.URL).GetBankConfig(context.Background()); err == nil {
		t.Fatal("GetBankConfig() should fail")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestGetBankConfig_ContextCanceled(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewClientWithURL(server.URL).GetBankConfig(ctx)
	if err == nil {
		t.Fatal("GetBankConfig() should fail when canceled")
	}

	bankErr, ok := err.(*BankError)
	if !ok || bankErr.Type != ErrTypeCanceled {
		t.Errorf("error = %v, want canceled BankError", err)
	}
}

func TestGetValidatorConfig(t *testing.T) {
	server := newConfigServer(t, http.StatusOK, mockValidatorConfig)

	cfg, err := NewClientWithURL(server.URL).GetValidatorConfig(context.Background())
	if err != nil {
		t.Fatalf("GetValidatorConfig() error = %v", err)
	}
	if cfg.NodeType != node.NodeTypePrimaryValidator {
		t.Errorf("NodeType = %s", cfg.NodeType)
	}
}

func TestGetValidatorConfig_RejectsBank(t *testing.T) {
	server := newConfigServer(t, http.StatusOK, mockBankConfig)

	if _, err := NewClientWithURL(server.URL).GetValidatorConfig(context.Background()); err == nil {
		t.Error("GetValidatorConfig() should reject a bank")
	}
}

func TestPing(t *testing.T) {
	server := newConfigServer(t, http.StatusOK, mockBankConfig)

	if err := NewClientWithURL(server.URL).Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
