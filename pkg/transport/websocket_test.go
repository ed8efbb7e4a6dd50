package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielmiguelok/regform/pkg/core"
	"github.com/gabrielmiguelok/regform/pkg/protocol"
)

func TestWebSocket_OriginValidation(t *testing.T) {
	tests := []struct {
		name          string
		allowed       []string
		origin        string
		host          string
		expectAllowed bool
	}{
		{"same-origin allowed", nil, "https://example.com", "example.com", true},
		{"no origin allowed", nil, "", "example.com", true},
		{"explicit origin allowed", []string{"https://allowed.com"}, "https://allowed.com", "example.com", true},
		{"host match without scheme", []string{"http://allowed.com"}, "https://allowed.com", "example.com", true},
		{"origin not in list blocked", []string{"https://allowed.com"}, "https://attacker.com", "example.com", false},
		{"wildcard allows all", []string{"*"}, "https://any-site.com", "example.com", true},
		{"cross-origin blocked by default", nil, "https://other-site.com", "example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewWebSocketTransport(&Config{AllowedOrigins: tt.allowed}, nil, nil)
			assert.Equal(t, tt.expectAllowed, tr.isOriginAllowed(tt.origin, tt.host))
		})
	}
}

func TestWebSocket_RejectsInvalidOrigin(t *testing.T) {
	tr := NewWebSocketTransport(&Config{AllowedOrigins: []string{"https://allowed.com"}}, nil, nil)

	req := httptest.NewRequest("GET", "/live", nil)
	req.Header.Set("Origin", "https://attacker.com")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Connection", "Upgrade")
	req.Host = "example.com"

	w := httptest.NewRecorder()
	err := tr.Upgrade(w, req)

	assert.ErrorIs(t, err, ErrOriginNotAllowed)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, tr.IsConnected())
}

func TestDefaultConfig(t *testing.T) {
	c := (&Config{ReadTimeout: time.Second}).withDefaults()
	assert.Equal(t, time.Second, c.ReadTimeout)
	assert.Equal(t, DefaultConfig().WriteTimeout, c.WriteTimeout)
	assert.Nil(t, c.AllowedOrigins)
}

// echoServer upgrades every request and echoes decoded messages back with
// the event name prefixed.
func echoServer(t *testing.T, codec protocol.Codec) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr := NewWebSocketTransport(nil, codec, nil)
		if err := tr.Upgrade(w, r); err != nil {
			return
		}
		for {
			select {
			case msg := <-tr.Receive():
				_ = tr.Send(core.Message{
					Ref:     msg.Ref,
					Topic:   msg.Topic,
					Event:   "echo:" + msg.Event,
					Payload: msg.Payload,
				})
			case <-tr.CloseChan():
				return
			}
		}
	}))
}

func TestWebSocket_RoundTrip(t *testing.T) {
	for _, codec := range []protocol.Codec{protocol.NewJSONCodec(), protocol.NewMsgPackCodec()} {
		t.Run(codec.Name(), func(t *testing.T) {
			srv := echoServer(t, codec)
			defer srv.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			url := "ws" + strings.TrimPrefix(srv.URL, "http")
			conn, _, err := websocket.Dial(ctx, url, nil)
			require.NoError(t, err)
			defer conn.Close(websocket.StatusNormalClosure, "")

			data, err := codec.Encode(&protocol.Message{
				Ref:     "1",
				Topic:   "lv:x",
				Event:   "update_name",
				Payload: map[string]any{"value": "Ada"},
			})
			require.NoError(t, err)

			typ := websocket.MessageText
			if codec.Binary() {
				typ = websocket.MessageBinary
			}
			require.NoError(t, conn.Write(ctx, typ, data))

			gotTyp, reply, err := conn.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, typ, gotTyp)

			msg, err := codec.Decode(reply)
			require.NoError(t, err)
			assert.Equal(t, "echo:update_name", msg.Event)
			assert.Equal(t, "1", msg.Ref)
			assert.Equal(t, "Ada", protocol.PayloadString(msg.Payload, "value"))
		})
	}
}

func TestWebSocket_SendAfterClose(t *testing.T) {
	tr := NewWebSocketTransport(nil, nil, nil)
	assert.ErrorIs(t, tr.Send(core.Message{Event: "render"}), ErrNotConnected)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	select {
	case <-tr.CloseChan():
	default:
		t.Fatal("CloseChan not closed")
	}
}
