package mockbank

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/bankconnect/internal/logging"
	"github.com/muurk/bankconnect/internal/node"
)

// DefaultStatusInterval is how often status streams push an update
const DefaultStatusInterval = 5 * time.Second

// Config holds the mock node configuration
type Config struct {
	// Host is the interface to listen on and the address advertised in /config.
	// Empty means 127.0.0.1.
	Host string
	Port int

	// ValidatorPort serves the primary validator; 0 means Port+1
	ValidatorPort int

	CertPath string // TLS certificate; with KeyPath, serves https
	KeyPath  string

	StatusInterval time.Duration

	AccountNumber  string
	NodeIdentifier string
}

// Server is a bank node and its primary validator, served from one process
type Server struct {
	config    *Config
	tlsConfig *tls.Config
	upgrader  websocket.Upgrader

	bank      *http.Server
	validator *http.Server

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]*websocket.Conn

	closing   chan struct{}
	closeOnce sync.Once
}

// New creates a Server from config, filling in defaults
func New(config *Config) (*Server, error) {
	cfg := *config
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.ValidatorPort == 0 {
		cfg.ValidatorPort = cfg.Port + 1
	}
	if cfg.ValidatorPort == cfg.Port {
		return nil, fmt.Errorf("validator port must differ from bank port %d", cfg.Port)
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = DefaultStatusInterval
	}
	if cfg.AccountNumber == "" {
		cfg.AccountNumber = defaultAccountNumber
	}
	if cfg.NodeIdentifier == "" {
		cfg.NodeIdentifier = defaultNodeIdentifier
	}

	s := &Server{
		config:      &cfg,
		activeConns: make(map[string]*websocket.Conn),
		closing:     make(chan struct{}),
	}

	if cfg.CertPath != "" || cfg.KeyPath != "" {
		if cfg.CertPath == "" || cfg.KeyPath == "" {
			return nil, errors.New("both a certificate and a key are needed for https")
		}
		tlsConfig, err := NewTLSConfig(cfg.CertPath, cfg.KeyPath)
		if err != nil {
			return nil, err
		}
		s.tlsConfig = tlsConfig
	}

	s.bank = &http.Server{Handler: s.BankHandler(), ReadHeaderTimeout: 10 * time.Second}
	s.validator = &http.Server{Handler: s.ValidatorHandler(), ReadHeaderTimeout: 10 * time.Second}

	return s, nil
}

// Protocol is the protocol both nodes are served over
func (s *Server) Protocol() node.Protocol {
	if s.tlsConfig != nil {
		return node.ProtocolHTTPS
	}
	return node.ProtocolHTTP
}

// BankAddress is where clients reach the bank
func (s *Server) BankAddress() node.Address {
	return node.Address{IPAddress: s.config.Host, Port: node.IntPtr(s.config.Port), Protocol: s.Protocol()}
}

// ValidatorAddress is where clients reach the primary validator
func (s *Server) ValidatorAddress() node.Address {
	return node.Address{IPAddress: s.config.Host, Port: node.IntPtr(s.config.ValidatorPort), Protocol: s.Protocol()}
}

// Start serves both nodes and blocks until ctx is canceled or a listener fails
func (s *Server) Start(ctx context.Context) error {
	bankLn, err := s.listen(s.config.Port)
	if err != nil {
		return err
	}
	validatorLn, err := s.listen(s.config.ValidatorPort)
	if err != nil {
		_ = bankLn.Close()
		return err
	}

	logging.Info("Mock bank listening",
		zap.String("bank", s.BankAddress().BaseURL()),
		zap.String("validator", s.ValidatorAddress().BaseURL()),
		zap.Duration("status_interval", s.config.StatusInterval),
	)

	errChan := make(chan error, 2)
	go func() { errChan <- serve(s.bank, bankLn) }()
	go func() { errChan <- serve(s.validator, validatorLn) }()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping mock bank...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		_ = s.Shutdown(context.Background())
		return err
	}
}

func (s *Server) listen(port int) (net.Listener, error) {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(port))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		ln = tls.NewListener(ln, s.tlsConfig)
	}
	return ln, nil
}

func serve(srv *http.Server, ln net.Listener) error {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, closes open status streams and waits
// for their handlers to return
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closing) })

	if err := s.bank.Shutdown(ctx); err != nil {
		logging.Error("Error stopping bank listener", zap.Error(err))
	}
	if err := s.validator.Shutdown(ctx); err != nil {
		logging.Error("Error stopping validator listener", zap.Error(err))
	}

	// Hijacked websocket connections are not closed by http.Server
	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Debug("Closing status stream", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All status streams closed")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	logging.Sync()
	return nil
}

// GetActiveConnections returns the number of open status streams
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

func (s *Server) track(addr string, conn *websocket.Conn) {
	s.mu.Lock()
	s.activeConns[addr] = conn
	s.mu.Unlock()
}

func (s *Server) untrack(addr string) {
	s.mu.Lock()
	delete(s.activeConns, addr)
	s.mu.Unlock()
}
