// Package testing provides a harness for driving live form components
// without a browser or WebSocket connection.
package testing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gabrielmiguelok/regform/pkg/core"
)

// LiveViewTest drives one mounted component the way a session loop would:
// events and info messages run one at a time and every one re-renders.
type LiveViewTest struct {
	component core.Component
	transport *MockTransport
	socket    *core.Socket
	rendered  string
	events    []string
	t         *testing.T
}

type mountConfig struct {
	params  core.Params
	session core.Session
}

// MountOption configures the test mount.
type MountOption func(*mountConfig)

// WithParams sets mount parameters.
func WithParams(params core.Params) MountOption {
	return func(c *mountConfig) {
		c.params = params
	}
}

// WithSession sets session data.
func WithSession(session core.Session) MountOption {
	return func(c *mountConfig) {
		c.session = session
	}
}

// Mount attaches a socket backed by a MockTransport, mounts the component
// and renders it once. The component is terminated when the test ends.
func Mount(t *testing.T, comp core.Component, opts ...MountOption) *LiveViewTest {
	t.Helper()

	cfg := mountConfig{params: core.Params{}, session: core.Session{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	tr := NewMockTransport()
	lvt := &LiveViewTest{
		component: comp,
		transport: tr,
		socket:    core.NewSocket(tr.ID, tr, 0),
		t:         t,
	}

	if setter, ok := comp.(interface{ SetSocket(*core.Socket) }); ok {
		setter.SetSocket(lvt.socket)
	}

	if err := comp.Mount(context.Background(), cfg.params, cfg.session); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	t.Cleanup(func() {
		comp.Terminate(context.Background(), core.TerminateNormal)
		lvt.socket.Close()
	})

	lvt.render()
	return lvt
}

// Event sends an event and re-renders unless the component answers with
// core.SkipRender. The event error is returned, not reported, so rejected
// input can be asserted on.
func (lvt *LiveViewTest) Event(event string, payload map[string]any) error {
	lvt.t.Helper()

	if payload == nil {
		payload = map[string]any{}
	}
	lvt.events = append(lvt.events, event)

	err := lvt.component.HandleEvent(context.Background(), event, payload)
	if errors.Is(err, core.SkipRender) {
		return nil
	}
	lvt.render()
	return err
}

// Change sends an event carrying {"value": value}. It fails the test if
// the component rejects it.
func (lvt *LiveViewTest) Change(event, value string) *LiveViewTest {
	lvt.t.Helper()

	if err := lvt.Event(event, map[string]any{"value": value}); err != nil {
		lvt.t.Errorf("%s(%q) failed: %v", event, value, err)
	}
	return lvt
}

// Click sends an event with an empty payload.
func (lvt *LiveViewTest) Click(event string) *LiveViewTest {
	lvt.t.Helper()

	if err := lvt.Event(event, nil); err != nil {
		lvt.t.Errorf("%s failed: %v", event, err)
	}
	return lvt
}

// SendInfo delivers an info message directly and re-renders.
func (lvt *LiveViewTest) SendInfo(msg any) *LiveViewTest {
	lvt.t.Helper()

	if err := lvt.component.HandleInfo(context.Background(), msg); err != nil {
		lvt.t.Errorf("HandleInfo failed: %v", err)
	}
	lvt.render()
	return lvt
}

// AwaitInfo waits up to timeout for the component to post an info message
// to its own socket, then delivers it. It reports whether one arrived.
func (lvt *LiveViewTest) AwaitInfo(timeout time.Duration) bool {
	lvt.t.Helper()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-lvt.socket.Info():
		lvt.SendInfo(msg)
		return true
	case <-timer.C:
		return false
	}
}

// PendingInfo returns the number of queued info messages.
func (lvt *LiveViewTest) PendingInfo() int {
	return len(lvt.socket.Info())
}

func (lvt *LiveViewTest) render() {
	ctx := context.Background()
	renderer := lvt.component.Render(ctx)
	if renderer == nil {
		lvt.t.Fatalf("Render returned nil renderer")
	}

	var buf bytes.Buffer
	if err := renderer.Render(ctx, &buf); err != nil {
		lvt.t.Fatalf("Render failed: %v", err)
	}
	lvt.rendered = buf.String()
}

// Rendered returns the current rendered HTML.
func (lvt *LiveViewTest) Rendered() string {
	return lvt.rendered
}

// AssertText verifies the rendered output contains text.
func (lvt *LiveViewTest) AssertText(text string) *LiveViewTest {
	lvt.t.Helper()

	if !strings.Contains(lvt.rendered, text) {
		lvt.t.Errorf("Text not found: %q\nRendered HTML:\n%s", text, lvt.rendered)
	}
	return lvt
}

// AssertNoText verifies the rendered output does not contain text.
func (lvt *LiveViewTest) AssertNoText(text string) *LiveViewTest {
	lvt.t.Helper()

	if strings.Contains(lvt.rendered, text) {
		lvt.t.Errorf("Text should not exist: %q", text)
	}
	return lvt
}

// Transport returns the mock transport behind the socket.
func (lvt *LiveViewTest) Transport() *MockTransport {
	return lvt.transport
}

// Socket returns the socket attached to the component.
func (lvt *LiveViewTest) Socket() *core.Socket {
	return lvt.socket
}

// Component returns the component under test.
func (lvt *LiveViewTest) Component() core.Component {
	return lvt.component
}

// Events returns the names of all events sent.
func (lvt *LiveViewTest) Events() []string {
	return lvt.events
}
