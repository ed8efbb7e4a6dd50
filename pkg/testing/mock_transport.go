package testing

import (
	"sync"

	"github.com/google/uuid"

	"github.com/gabrielmiguelok/regform/pkg/core"
)

// MockTransport implements core.Transport for testing.
type MockTransport struct {
	ID          string
	Sent        []core.Message
	Closed      bool
	errorToSend error

	mu sync.Mutex
}

// NewMockTransport creates a new connected mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		ID: "test-socket-" + uuid.New().String()[:8],
	}
}

// Send records a sent message.
func (mt *MockTransport) Send(msg core.Message) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if mt.errorToSend != nil {
		return mt.errorToSend
	}
	if mt.Closed {
		return core.ErrSocketClosed
	}

	mt.Sent = append(mt.Sent, msg)
	return nil
}

// Close marks the transport as closed.
func (mt *MockTransport) Close() error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.Closed = true
	return nil
}

// IsConnected returns the connection status.
func (mt *MockTransport) IsConnected() bool {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return !mt.Closed
}

// LastSent returns the last sent message.
func (mt *MockTransport) LastSent() core.Message {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if len(mt.Sent) == 0 {
		return core.Message{}
	}
	return mt.Sent[len(mt.Sent)-1]
}

// SentCount returns the number of sent messages.
func (mt *MockTransport) SentCount() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return len(mt.Sent)
}

// SentMessages returns all sent messages.
func (mt *MockTransport) SentMessages() []core.Message {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	result := make([]core.Message, len(mt.Sent))
	copy(result, mt.Sent)
	return result
}

// SetError sets an error to return on every Send until cleared.
func (mt *MockTransport) SetError(err error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.errorToSend = err
}

// ClearError clears any set error.
func (mt *MockTransport) ClearError() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.errorToSend = nil
}

// AssertSent reports whether a message with the given event was sent.
func (mt *MockTransport) AssertSent(event string) bool {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for _, msg := range mt.Sent {
		if msg.Event == event {
			return true
		}
	}
	return false
}
