package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockTransport implements Transport for testing.
type MockTransport struct {
	connected bool
	failWith  error
	messages  []Message
	mu        sync.Mutex
}

func NewMockTransport() *MockTransport {
	return &MockTransport{connected: true}
}

func (m *MockTransport) Send(msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockTransport) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func TestSocketPush(t *testing.T) {
	tr := NewMockTransport()
	s := NewSocket("abc", tr, 0)

	require.NoError(t, s.Push("render", map[string]any{"html": "<p></p>"}))

	msgs := tr.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "lv:abc", msgs[0].Topic)
	assert.Equal(t, "render", msgs[0].Event)
	assert.True(t, s.IsConnected())
}

func TestSocketSendFailure(t *testing.T) {
	tr := NewMockTransport()
	tr.failWith = errors.New("broken pipe")
	s := NewSocket("abc", tr, 0)

	err := s.Push("render", nil)
	assert.ErrorIs(t, err, ErrSendFailed)
}

func TestSocketClosed(t *testing.T) {
	tr := NewMockTransport()
	s := NewSocket("abc", tr, 0)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close is a no-op")

	assert.False(t, s.IsConnected())
	assert.ErrorIs(t, s.Push("render", nil), ErrSocketClosed)
	assert.ErrorIs(t, s.SendInfo("x"), ErrSocketClosed)

	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestSocketMailbox(t *testing.T) {
	s := NewSocket("abc", NewMockTransport(), 2)

	require.NoError(t, s.SendInfo("one"))
	require.NoError(t, s.SendInfo("two"))
	assert.ErrorIs(t, s.SendInfo("three"), ErrMailboxFull)

	assert.Equal(t, "one", <-s.Info())
	assert.Equal(t, "two", <-s.Info())
}

func TestSocketJoinSetsPushTopic(t *testing.T) {
	tr := NewMockTransport()
	s := NewSocket("abc", tr, 0)
	assert.Equal(t, "lv:abc", s.Topic())

	s.Join("lv:/live")
	require.NoError(t, s.Push("render", nil))

	msgs := tr.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "lv:/live", msgs[0].Topic)
	assert.Empty(t, msgs[0].Ref)
}

func TestBaseComponentDefaults(t *testing.T) {
	var bc BaseComponent
	ctx := context.Background()

	assert.Nil(t, bc.Socket())
	assert.NoError(t, bc.Mount(ctx, Params{}, Session{}))
	assert.NoError(t, bc.HandleEvent(ctx, "x", nil))
	assert.NoError(t, bc.HandleInfo(ctx, nil))
	assert.NoError(t, bc.Terminate(ctx, TerminateNormal))
	assert.Equal(t, "shutdown", TerminateShutdown.String())
}

func TestParamsAndSession(t *testing.T) {
	p := Params{"vsn": "msgpack"}
	assert.Equal(t, "msgpack", p.Get("vsn"))
	assert.Equal(t, "json", p.GetDefault("codec", "json"))

	s := Session{"request_id": "r1", "n": 3}
	assert.Equal(t, "r1", s.GetString("request_id"))
	assert.Empty(t, s.GetString("n"))
}
