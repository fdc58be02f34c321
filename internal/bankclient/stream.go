package bankclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/bankconnect/internal/logging"
	"github.com/muurk/bankconnect/internal/node"
)

// StatusKind selects which bank maintenance stream to follow
type StatusKind string

const (
	StatusCrawl StatusKind = "crawl"
	StatusClean StatusKind = "clean"
)

// Path returns the websocket path for the stream
func (k StatusKind) Path() string {
	return fmt.Sprintf("/ws/%s_status", k)
}

// StatusEvent is one status update pushed by a bank
type StatusEvent struct {
	Kind          StatusKind
	Status        string
	LastCompleted string
	Err           error
}

// statusPayload covers both crawl and clean documents
type statusPayload struct {
	CrawlStatus        string `json:"crawl_status"`
	CrawlLastCompleted string `json:"crawl_last_completed"`
	CleanStatus        string `json:"clean_status"`
	CleanLastCompleted string `json:"clean_last_completed"`
}

// DefaultHandshakeTimeout bounds the websocket upgrade
const DefaultHandshakeTimeout = 10 * time.Second

// StatusStream follows a bank's crawl or clean status over a websocket
type StatusStream struct {
	Dialer *websocket.Dialer
}

// NewStatusStream creates a stream with default dialer settings
func NewStatusStream() *StatusStream {
	return &StatusStream{
		Dialer: &websocket.Dialer{HandshakeTimeout: DefaultHandshakeTimeout},
	}
}

// Subscribe dials the bank and delivers events until ctx is canceled or the
// connection drops. The final event on a dropped connection carries Err.
// The returned channel is closed when the stream ends.
func (s *StatusStream) Subscribe(ctx context.Context, addr node.Address, kind StatusKind) (<-chan StatusEvent, error) {
	wsURL := addr.WebSocketURL(kind.Path())

	conn, _, err := s.Dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, ClassifyNetworkError(err, wsURL)
	}

	logging.Info("Status stream connected", zap.String("url", wsURL))

	events := make(chan StatusEvent)

	// Closing the connection unblocks ReadMessage when ctx ends
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})

	go func() {
		defer close(events)
		defer stop()
		defer func() { _ = conn.Close() }()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logging.Warn("Status stream closed", zap.String("url", wsURL), zap.Error(err))
				s.deliver(ctx, events, StatusEvent{Kind: kind, Err: err})
				return
			}

			event, err := decodeStatus(kind, data)
			if err != nil {
				logging.Debug("Ignoring malformed status message", zap.String("url", wsURL), zap.Error(err))
				continue
			}

			if !s.deliver(ctx, events, event) {
				return
			}
		}
	}()

	return events, nil
}

func (s *StatusStream) deliver(ctx context.Context, events chan<- StatusEvent, event StatusEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// decodeStatus converts a raw websocket message into an event
func decodeStatus(kind StatusKind, data []byte) (StatusEvent, error) {
	var payload statusPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return StatusEvent{}, NewParseError("failed to parse status message", err)
	}

	event := StatusEvent{Kind: kind}
	switch kind {
	case StatusCrawl:
		event.Status = payload.CrawlStatus
		event.LastCompleted = payload.CrawlLastCompleted
	case StatusClean:
		event.Status = payload.CleanStatus
		event.LastCompleted = payload.CleanLastCompleted
	}

	if event.Status == "" {
		return StatusEvent{}, NewParseError(fmt.Sprintf("message has no %s status", kind), nil)
	}

	return event, nil
}
