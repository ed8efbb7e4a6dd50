package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielmiguelok/regform/pkg/core"
	"github.com/gabrielmiguelok/regform/pkg/health"
	"github.com/gabrielmiguelok/regform/pkg/protocol"
)

// counter is a minimal component: "inc" bumps the count, "boom" fails,
// "quiet" bumps the count without a render and "later" posts a mailbox
// message that sets the note.
type counter struct {
	core.BaseComponent
	count int
	note  string

	mu         sync.Mutex
	terminated []core.TerminateReason
}

func (c *counter) Name() string { return "counter" }

func (c *counter) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<p>count=%d note=%s</p>", c.count, c.note)
		return err
	})
}

func (c *counter) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case "inc":
		c.count++
	case "boom":
		return errors.New("boom")
	case "quiet":
		c.count++
		return core.SkipRender
	case "later":
		return c.Socket().SendInfo(protocol.PayloadString(payload, "value"))
	}
	return nil
}

func (c *counter) HandleInfo(ctx context.Context, msg any) error {
	c.note, _ = msg.(string)
	return nil
}

func (c *counter) Terminate(ctx context.Context, reason core.TerminateReason) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminated = append(c.terminated, reason)
	return nil
}

func (c *counter) reasons() []core.TerminateReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.TerminateReason(nil), c.terminated...)
}

type harness struct {
	t      *testing.T
	router *Router
	srv    *httptest.Server
	reg    *prometheus.Registry

	mu   sync.Mutex
	last *counter
}

func (h *harness) lastComponent() *counter {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{t: t, reg: prometheus.NewRegistry()}
	opts.Registry = h.reg
	h.router = New(opts)
	h.router.Live("/", func() core.Component {
		c := &counter{}
		h.mu.Lock()
		h.last = c
		h.mu.Unlock()
		return c
	})
	h.srv = httptest.NewServer(h.router)
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) dial(query string) *websocket.Conn {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/live" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg protocol.Message) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func read(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg protocol.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func join(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()
	send(t, conn, protocol.Message{Ref: "1", Topic: "lv:test", Event: protocol.EventJoin})
	return read(t, conn)
}

func TestRouter_InitialHTTPRender(t *testing.T) {
	h := newHarness(t, Options{})

	resp, err := http.Get(h.srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<p>count=0 note=</p>", string(body))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "default-src 'self'")
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestRouter_Health(t *testing.T) {
	h := newHarness(t, Options{})

	resp, err := http.Get(h.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var report health.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, health.StatusHealthy, report.Status)
	assert.Contains(t, report.Checks, "accepting")
	assert.Contains(t, report.Checks, "sessions")

	live, err := http.Get(h.srv.URL + "/livez")
	require.NoError(t, err)
	live.Body.Close()
	assert.Equal(t, http.StatusOK, live.StatusCode)
}

func TestRouter_HealthAfterShutdown(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.router.Shutdown(context.Background()))

	resp, err := http.Get(h.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, wsResp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(h.srv.URL, "http")+"/live", nil)
	require.Error(t, err)
	require.NotNil(t, wsResp)
	assert.Equal(t, http.StatusServiceUnavailable, wsResp.StatusCode)
}

func TestRouter_MaxSessions(t *testing.T) {
	h := newHarness(t, Options{MaxSessions: 1})
	join(t, h.dial(""))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(h.srv.URL, "http")+"/live", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ready, err := http.Get(h.srv.URL + "/healthz")
	require.NoError(t, err)
	defer ready.Body.Close()
	assert.Equal(t, http.StatusOK, ready.StatusCode, "capacity only degrades")
}

func TestRouter_MaxSessionsConcurrentUpgrades(t *testing.T) {
	const limit, dials = 2, 10
	h := newHarness(t, Options{MaxSessions: limit})
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/live"

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []*websocket.Conn
		rejected int
	)
	start := make(chan struct{})
	for i := 0; i < dials; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			conn, resp, err := websocket.Dial(ctx, url, nil)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if resp != nil && resp.StatusCode == http.StatusServiceUnavailable {
					rejected++
				}
				return
			}
			accepted = append(accepted, conn)
		}()
	}
	close(start)
	wg.Wait()
	t.Cleanup(func() {
		for _, conn := range accepted {
			conn.Close(websocket.StatusNormalClosure, "")
		}
	})

	assert.Len(t, accepted, limit)
	assert.Equal(t, dials-limit, rejected)
	assert.LessOrEqual(t, h.router.SessionCount(), limit)
}

func TestRouter_Handle(t *testing.T) {
	h := newHarness(t, Options{})
	h.router.Handle("/_live/", http.StripPrefix("/_live/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("asset:" + r.URL.Path))
	})))

	resp, err := http.Get(h.srv.URL + "/_live/regform.js")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "asset:regform.js", string(body))
}

func TestRouter_JoinEventRender(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.dial("")

	reply := join(t, conn)
	assert.Equal(t, protocol.EventReply, reply.Event)
	assert.Equal(t, "ok", reply.Payload["status"])
	response, _ := reply.Payload["response"].(map[string]any)
	assert.Equal(t, "<p>count=0 note=</p>", response["html"])

	send(t, conn, protocol.Message{Ref: "2", Topic: "lv:test", Event: "inc"})
	render := read(t, conn)
	assert.Equal(t, protocol.EventRender, render.Event)
	assert.Equal(t, "2", render.Ref)
	assert.Equal(t, "<p>count=1 note=</p>", render.Payload["html"])

	assert.Equal(t, 1, h.router.SessionCount())
	assert.Equal(t, float64(1), testutil.ToFloat64(h.router.Metrics().SessionsActive))
	assert.Equal(t, float64(1), testutil.ToFloat64(h.router.Metrics().EventsTotal.WithLabelValues("inc")))
}

func TestRouter_EventErrorKeepsSession(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.dial("")
	join(t, conn)

	send(t, conn, protocol.Message{Ref: "2", Topic: "lv:test", Event: "boom"})
	msg := read(t, conn)
	assert.Equal(t, protocol.EventError, msg.Event)
	assert.Equal(t, "boom", msg.Payload["reason"])

	send(t, conn, protocol.Message{Ref: "3", Topic: "lv:test", Event: "inc"})
	assert.Equal(t, "<p>count=1 note=</p>", read(t, conn).Payload["html"])
	assert.Equal(t, float64(1), testutil.ToFloat64(h.router.Metrics().EventErrors.WithLabelValues("boom")))
}

func TestRouter_SkipRenderRepliesWithoutHTML(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.dial("")
	join(t, conn)

	send(t, conn, protocol.Message{Ref: "2", Topic: "lv:test", Event: "quiet"})
	ack := read(t, conn)
	assert.Equal(t, protocol.EventReply, ack.Event)
	assert.Equal(t, "2", ack.Ref)
	assert.Equal(t, "ok", ack.Payload["status"])
	response, _ := ack.Payload["response"].(map[string]any)
	assert.NotContains(t, response, "html")

	send(t, conn, protocol.Message{Ref: "3", Topic: "lv:test", Event: "inc"})
	render := read(t, conn)
	assert.Equal(t, protocol.EventRender, render.Event)
	assert.Equal(t, "<p>count=2 note=</p>", render.Payload["html"])

	assert.Equal(t, float64(1), testutil.ToFloat64(h.router.Metrics().EventsTotal.WithLabelValues("quiet")))
	assert.Equal(t, float64(0), testutil.ToFloat64(h.router.Metrics().EventErrors.WithLabelValues("quiet")))
}

func TestRouter_EventBeforeJoin(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.dial("")

	send(t, conn, protocol.Message{Ref: "1", Topic: "lv:test", Event: "inc"})
	msg := read(t, conn)
	assert.Equal(t, protocol.EventError, msg.Event)
	assert.Equal(t, ErrNotJoined.Error(), msg.Payload["reason"])
}

func TestRouter_Heartbeat(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.dial("")

	send(t, conn, protocol.Message{Ref: "9", Topic: "phoenix", Event: protocol.EventHeartbeat})
	msg := read(t, conn)
	assert.Equal(t, protocol.EventReply, msg.Event)
	assert.Equal(t, "9", msg.Ref)
}

func TestRouter_InfoMessagePushesRender(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.dial("")
	join(t, conn)

	send(t, conn, protocol.Message{Ref: "2", Topic: "lv:test", Event: "later", Payload: map[string]any{"value": "hi"}})

	first := read(t, conn)
	assert.Equal(t, "<p>count=0 note=</p>", first.Payload["html"])

	second := read(t, conn)
	assert.Equal(t, protocol.EventRender, second.Event)
	assert.Empty(t, second.Ref)
	assert.Equal(t, "lv:test", second.Topic)
	assert.Equal(t, "<p>count=0 note=hi</p>", second.Payload["html"])
}

func TestRouter_RateLimitDropsEvents(t *testing.T) {
	h := newHarness(t, Options{EventsPerSecond: 0.001, EventBurst: 1})
	conn := h.dial("")
	join(t, conn)

	send(t, conn, protocol.Message{Ref: "2", Topic: "lv:test", Event: "inc"})
	assert.Equal(t, "<p>count=1 note=</p>", read(t, conn).Payload["html"])

	send(t, conn, protocol.Message{Ref: "3", Topic: "lv:test", Event: "inc"})
	send(t, conn, protocol.Message{Ref: "4", Topic: "phoenix", Event: protocol.EventHeartbeat})

	// The dropped event produces nothing; the heartbeat reply comes next.
	msg := read(t, conn)
	assert.Equal(t, "4", msg.Ref)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.router.Metrics().EventsDropped))
}

func TestRouter_MsgPackCodec(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.dial("?vsn=msgpack")
	codec := protocol.NewMsgPackCodec()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := codec.Encode(&protocol.Message{Ref: "1", Topic: "lv:test", Event: protocol.EventJoin})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageBinary, data))

	typ, reply, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageBinary, typ)

	msg, err := codec.Decode(reply)
	require.NoError(t, err)
	assert.Equal(t, protocol.EventReply, msg.Event)
}

func TestRouter_UnknownCodecRejected(t *testing.T) {
	h := newHarness(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/live?vsn=xml"
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_LeaveTerminatesNormally(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.dial("")
	join(t, conn)
	c := h.lastComponent()

	send(t, conn, protocol.Message{Ref: "2", Topic: "lv:test", Event: protocol.EventLeave})

	require.Eventually(t, func() bool { return h.router.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []core.TerminateReason{core.TerminateNormal}, c.reasons())
	assert.Equal(t, float64(0), testutil.ToFloat64(h.router.Metrics().SessionsActive))
}

func TestRouter_Shutdown(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.dial("")
	join(t, conn)
	c := h.lastComponent()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.router.Shutdown(ctx))

	assert.Equal(t, 0, h.router.SessionCount())
	assert.Equal(t, []core.TerminateReason{core.TerminateShutdown}, c.reasons())
}

func TestRouter_Metrics(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.dial("")
	join(t, conn)

	resp, err := http.Get(h.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "regform_sessions_total 1")
}
