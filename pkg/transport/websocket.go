package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/gabrielmiguelok/regform/pkg/core"
	"github.com/gabrielmiguelok/regform/pkg/logging"
	"github.com/gabrielmiguelok/regform/pkg/protocol"
)

// WebSocket security errors
var (
	ErrOriginNotAllowed = errors.New("origin not allowed")
)

// WebSocketTransport is one accepted WebSocket connection. It implements
// core.Transport for outbound messages and exposes decoded inbound messages
// on Receive.
type WebSocketTransport struct {
	config *Config
	codec  protocol.Codec
	logger logging.Logger

	conn      *websocket.Conn
	connected bool

	sendCh    chan *protocol.Message
	recvCh    chan *protocol.Message
	closeCh   chan struct{}
	closeOnce sync.Once

	mu sync.RWMutex
}

// NewWebSocketTransport creates an unconnected transport. Call Upgrade to
// attach it to a request.
func NewWebSocketTransport(config *Config, codec protocol.Codec, logger logging.Logger) *WebSocketTransport {
	config = config.withDefaults()
	if codec == nil {
		codec = protocol.NewJSONCodec()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &WebSocketTransport{
		config:  config,
		codec:   codec,
		logger:  logger,
		sendCh:  make(chan *protocol.Message, config.SendBufferSize),
		recvCh:  make(chan *protocol.Message, config.ReceiveBufferSize),
		closeCh: make(chan struct{}),
	}
}

// isOriginAllowed checks if the origin is allowed for WebSocket connections.
func (t *WebSocketTransport) isOriginAllowed(origin string, requestHost string) bool {
	// Empty origin = same-origin request (allowed)
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	if originURL.Host == requestHost {
		return true
	}

	for _, allowed := range t.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
		// Also check without protocol
		if allowedURL, err := url.Parse(allowed); err == nil && allowedURL.Host == originURL.Host {
			return true
		}
	}

	return false
}

// Upgrade upgrades an HTTP connection to WebSocket and starts the read,
// write and ping loops. The origin header is validated first.
func (t *WebSocketTransport) Upgrade(w http.ResponseWriter, r *http.Request) error {
	origin := r.Header.Get("Origin")
	if !t.isOriginAllowed(origin, r.Host) {
		http.Error(w, "Forbidden: Origin not allowed", http.StatusForbidden)
		return ErrOriginNotAllowed
	}

	// The origin was checked above against our own allow list.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return fmt.Errorf("accept websocket: %w", err)
	}
	conn.SetReadLimit(t.config.MaxMessageSize)

	t.mu.Lock()
	t.conn = conn
	t.connected = true
	t.mu.Unlock()

	go t.readLoop()
	go t.writeLoop()
	go t.pingLoop()

	return nil
}

// IsConnected returns the connection status.
func (t *WebSocketTransport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

// Receive returns decoded inbound messages. It is never closed; select on
// CloseChan to notice the connection going away.
func (t *WebSocketTransport) Receive() <-chan *protocol.Message {
	return t.recvCh
}

// CloseChan is closed when the connection closes.
func (t *WebSocketTransport) CloseChan() <-chan struct{} {
	return t.closeCh
}

// Send queues a message for the write loop.
func (t *WebSocketTransport) Send(msg core.Message) error {
	if !t.IsConnected() {
		return ErrNotConnected
	}

	out := &protocol.Message{
		Ref:     msg.Ref,
		Topic:   msg.Topic,
		Event:   msg.Event,
		Payload: msg.Payload,
	}

	timer := time.NewTimer(t.config.WriteTimeout)
	defer timer.Stop()

	select {
	case t.sendCh <- out:
		return nil
	case <-t.closeCh:
		return ErrConnectionClosed
	case <-timer.C:
		return ErrSendTimeout
	}
}

// Close closes the WebSocket connection. Safe to call more than once.
func (t *WebSocketTransport) Close() error {
	return t.closeWith(websocket.StatusNormalClosure, "closing")
}

func (t *WebSocketTransport) closeWith(code websocket.StatusCode, reason string) error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.connected = false
		conn := t.conn
		t.conn = nil
		t.mu.Unlock()

		close(t.closeCh)
		if conn != nil {
			err = conn.Close(code, reason)
		}
	})
	return err
}

func (t *WebSocketTransport) currentConn() *websocket.Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conn
}

// readLoop reads and decodes frames until the connection fails.
func (t *WebSocketTransport) readLoop() {
	defer t.Close()

	for {
		conn := t.currentConn()
		if conn == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), t.config.ReadTimeout)
		_, data, err := conn.Read(ctx)
		cancel()

		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				t.logger.Debug("websocket read failed", logging.Err(err))
			}
			return
		}

		msg, err := t.codec.Decode(data)
		if err != nil {
			t.logger.Warn("dropping undecodable frame",
				logging.String("codec", t.codec.Name()),
				logging.Err(err),
			)
			continue
		}

		select {
		case t.recvCh <- msg:
		case <-t.closeCh:
			return
		default:
			t.logger.Warn("receive buffer full, dropping message", logging.String("event", msg.Event))
		}
	}
}

// writeLoop encodes and writes queued messages.
func (t *WebSocketTransport) writeLoop() {
	typ := websocket.MessageText
	if t.codec.Binary() {
		typ = websocket.MessageBinary
	}

	for {
		select {
		case msg := <-t.sendCh:
			conn := t.currentConn()
			if conn == nil {
				return
			}

			data, err := t.codec.Encode(msg)
			if err != nil {
				t.logger.Error("encode failed", logging.String("event", msg.Event), logging.Err(err))
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), t.config.WriteTimeout)
			err = conn.Write(ctx, typ, data)
			cancel()

			if err != nil {
				t.closeWith(websocket.StatusInternalError, "write failed")
				return
			}

		case <-t.closeCh:
			return
		}
	}
}

// pingLoop sends periodic pings to keep the connection alive.
func (t *WebSocketTransport) pingLoop() {
	ticker := time.NewTicker(t.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn := t.currentConn()
			if conn == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), t.config.WriteTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				t.logger.Debug("websocket ping failed", logging.Err(err))
			}
		case <-t.closeCh:
			return
		}
	}
}
