package core

import (
	"errors"
	"fmt"
	"sync"
)

// Common socket errors.
var (
	ErrSocketClosed = errors.New("socket is closed")
	ErrSendFailed   = errors.New("failed to send message")
	ErrMailboxFull  = errors.New("socket mailbox is full")
)

// DefaultMailboxSize bounds pending info messages per socket.
const DefaultMailboxSize = 16

// Transport is the interface for underlying connection transports.
type Transport interface {
	Send(msg Message) error
	Close() error
	IsConnected() bool
}

// Message is a server-to-client message.
type Message struct {
	Ref     string         `json:"ref,omitempty"`
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Socket is one client connection. Besides sending to the client it owns a
// mailbox of server-side info messages that the session loop delivers to
// the component's HandleInfo.
type Socket struct {
	id        string
	transport Transport
	topic     string

	connected bool

	mailbox chan any
	closeCh chan struct{}

	mu sync.RWMutex
}

// NewSocket creates a connected socket.
func NewSocket(id string, transport Transport, mailboxSize int) *Socket {
	if mailboxSize <= 0 {
		mailboxSize = DefaultMailboxSize
	}
	s := &Socket{
		id:        id,
		transport: transport,
		connected: true,
		mailbox:   make(chan any, mailboxSize),
		closeCh:   make(chan struct{}),
	}
	return s
}

// ID returns the socket's unique identifier.
func (s *Socket) ID() string {
	return s.id
}

// Topic is the channel the client joined, or "lv:<id>" before a join.
func (s *Socket) Topic() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.topic == "" {
		return "lv:" + s.id
	}
	return s.topic
}

// Join records the topic the client joined with.
func (s *Socket) Join(topic string) {
	s.mu.Lock()
	s.topic = topic
	s.mu.Unlock()
}

// IsConnected returns true if the socket and its transport are up.
func (s *Socket) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected && s.transport != nil && s.transport.IsConnected()
}

// Send sends a message to the client.
func (s *Socket) Send(msg Message) error {
	s.mu.RLock()
	connected := s.connected
	transport := s.transport
	s.mu.RUnlock()

	if !connected || transport == nil || !transport.IsConnected() {
		return ErrSocketClosed
	}

	if err := transport.Send(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Push sends an event on the socket's topic without a ref. Server-initiated
// renders use it.
func (s *Socket) Push(event string, payload map[string]any) error {
	return s.Send(Message{
		Topic:   s.Topic(),
		Event:   event,
		Payload: payload,
	})
}

// SendInfo queues a server-side message for the component. It never
// blocks: a full mailbox or a closed socket is reported as an error.
func (s *Socket) SendInfo(msg any) error {
	select {
	case <-s.closeCh:
		return ErrSocketClosed
	default:
	}

	select {
	case s.mailbox <- msg:
		return nil
	case <-s.closeCh:
		return ErrSocketClosed
	default:
		return ErrMailboxFull
	}
}

// Info returns the mailbox channel read by the session loop.
func (s *Socket) Info() <-chan any {
	return s.mailbox
}

// Done is closed when the socket closes.
func (s *Socket) Done() <-chan struct{} {
	return s.closeCh
}

// Close closes the socket and its transport. Safe to call more than once.
func (s *Socket) Close() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}
	s.connected = false
	close(s.closeCh)
	transport := s.transport
	s.mu.Unlock()

	if transport != nil {
		return transport.Close()
	}
	return nil
}
