package mockbank

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/bankconnect/internal/bankclient"
	"github.com/muurk/bankconnect/internal/logging"
	"github.com/muurk/bankconnect/internal/node"
)

const (
	defaultAccountNumber  = "5e12967707909e62b2bb2036c209085a784fabbc3deccefee70052b6181c8ed8"
	defaultNodeIdentifier = "d5356888dc9303e44ce52b1e06c3165a7759b9df1e6a6dfbd33ee1c3df1ab4d1"
	validatorAccount      = "ad1f8845c6a1abb6011a2a434a079a087c460657aad54329a84b406dce8bf314"
	validatorIdentifier   = "2e86f48216567302527b69eae6c6a188097ed3a9741f43cc3723e570cf47644c"
	nodeVersion           = "v1.0"

	// Time allowed to write a status message to the peer
	writeWait = 10 * time.Second
)

// statusMessage mirrors what banks push on their status sockets
type statusMessage struct {
	CrawlStatus        string `json:"crawl_status,omitempty"`
	CrawlLastCompleted string `json:"crawl_last_completed,omitempty"`
	CleanStatus        string `json:"clean_status,omitempty"`
	CleanLastCompleted string `json:"clean_last_completed,omitempty"`
}

// BankConfig is the document the bank serves at /config
func (s *Server) BankConfig() *node.BankConfig {
	addr := s.BankAddress()
	return &node.BankConfig{
		AccountNumber:         s.config.AccountNumber,
		IPAddress:             addr.IPAddress,
		NodeIdentifier:        s.config.NodeIdentifier,
		Port:                  addr.Port,
		Protocol:              addr.Protocol,
		Version:               nodeVersion,
		DefaultTransactionFee: 1,
		NodeType:              node.NodeTypeBank,
		PrimaryValidator:      s.ValidatorConfig(),
	}
}

// ValidatorConfig is the document the primary validator serves at /config
func (s *Server) ValidatorConfig() *node.ValidatorConfig {
	addr := s.ValidatorAddress()
	return &node.ValidatorConfig{
		AccountNumber:         validatorAccount,
		IPAddress:             addr.IPAddress,
		NodeIdentifier:        validatorIdentifier,
		Port:                  addr.Port,
		Protocol:              addr.Protocol,
		Version:               nodeVersion,
		DefaultTransactionFee: 1,
		Trust:                 "100.00",
		NodeType:              node.NodeTypePrimaryValidator,
	}
}

// BankHandler serves the bank's /config and status sockets
func (s *Server) BankHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, s.BankConfig())
	})
	mux.HandleFunc(bankclient.StatusCrawl.Path(), s.serveStatus(bankclient.StatusCrawl))
	mux.HandleFunc(bankclient.StatusClean.Path(), s.serveStatus(bankclient.StatusClean))
	return mux
}

// ValidatorHandler serves the primary validator's /config
func (s *Server) ValidatorHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, s.ValidatorConfig())
	})
	return mux
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	logging.Debug("Serving request",
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("path", r.URL.Path),
	)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to write response", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// serveStatus upgrades to a websocket and pushes kind's status every
// StatusInterval until the peer leaves or the server shuts down
func (s *Server) serveStatus(kind bankclient.StatusKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn("Status stream upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
			return
		}

		s.wg.Add(1)
		defer s.wg.Done()

		remoteAddr := r.RemoteAddr
		s.track(remoteAddr, conn)
		defer func() {
			_ = conn.Close()
			s.untrack(remoteAddr)
			logging.Info("Status stream closed", zap.String("remote_addr", remoteAddr), zap.String("kind", string(kind)))
		}()

		logging.Info("Status stream opened", zap.String("remote_addr", remoteAddr), zap.String("kind", string(kind)))

		// Reading is only needed to notice the peer going away
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(s.config.StatusInterval)
		defer ticker.Stop()

		var lastCompleted time.Time
		for tick := 0; ; tick++ {
			if tick%2 == 1 {
				lastCompleted = time.Now().UTC()
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(statusFor(kind, tick, lastCompleted)); err != nil {
				logging.Debug("Status write failed", zap.String("remote_addr", remoteAddr), zap.Error(err))
				return
			}

			select {
			case <-gone:
				return
			case <-s.closing:
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(time.Second))
				return
			case <-ticker.C:
			}
		}
	}
}

// statusFor alternates between running and idle, stamping a completion time
// each time a run finishes
func statusFor(kind bankclient.StatusKind, tick int, lastCompleted time.Time) statusMessage {
	running := tick%2 == 0

	var completed string
	if !lastCompleted.IsZero() {
		completed = lastCompleted.Format(time.RFC3339)
	}

	switch kind {
	case bankclient.StatusClean:
		status := "not_cleaning"
		if running {
			status = "cleaning"
		}
		return statusMessage{CleanStatus: status, CleanLastCompleted: completed}
	default:
		status := "not_crawling"
		if running {
			status = "crawling"
		}
		return statusMessage{CrawlStatus: status, CrawlLastCompleted: completed}
	}
}
