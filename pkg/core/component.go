// Package core defines the server-side component contract: components keep
// their state on the server, handle browser events and render HTML.
package core

import (
	"context"
	"errors"
	"io"
)

// SkipRender is returned from HandleEvent to acknowledge an event without
// re-rendering. The router replies with an empty phx_reply. A component
// that changes state this way must post itself an info message when the
// page should catch up.
var SkipRender = errors.New("skip render")

// Component is the interface every live form component implements.
type Component interface {
	// Name returns the component type name.
	Name() string

	// Mount is called once, before the first render.
	Mount(ctx context.Context, params Params, session Session) error

	// Render returns the current HTML of the component.
	// It is called after Mount and after every event or info message.
	Render(ctx context.Context) Renderer

	// HandleEvent processes a browser event (change, click, submit...).
	// Returning SkipRender acknowledges the event without a render.
	HandleEvent(ctx context.Context, event string, payload map[string]any) error

	// HandleInfo processes a server-side message, such as a debounced
	// check firing. It runs on the same goroutine as HandleEvent.
	HandleInfo(ctx context.Context, msg any) error

	// Terminate is called when the connection goes away.
	Terminate(ctx context.Context, reason TerminateReason) error
}

// Renderer writes HTML.
type Renderer interface {
	Render(ctx context.Context, w io.Writer) error
}

// RendererFunc is an adapter to allow ordinary functions to be used as Renderers.
type RendererFunc func(ctx context.Context, w io.Writer) error

func (f RendererFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// Params contains URL query parameters of the connection.
type Params map[string]string

// Get returns a parameter value or empty string if not found.
func (p Params) Get(key string) string {
	return p[key]
}

// GetDefault returns a parameter value or the default if not found.
func (p Params) GetDefault(key, defaultValue string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return defaultValue
}

// Session contains per-connection data from the HTTP handshake.
type Session map[string]any

// GetString returns a session value as string.
func (s Session) GetString(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// TerminateReason indicates why a component is being terminated.
type TerminateReason int

const (
	TerminateNormal TerminateReason = iota
	TerminateShutdown
	TerminateError
)

func (r TerminateReason) String() string {
	switch r {
	case TerminateNormal:
		return "normal"
	case TerminateShutdown:
		return "shutdown"
	case TerminateError:
		return "error"
	default:
		return "unknown"
	}
}

// BaseComponent provides default implementations for Component methods.
// Embed it to avoid implementing unused methods.
type BaseComponent struct {
	socket *Socket
}

// SetSocket attaches the connection socket (called by the router).
func (bc *BaseComponent) SetSocket(s *Socket) {
	bc.socket = s
}

// Socket returns the connection socket, or nil before the WebSocket joins
// (during the initial HTTP render).
func (bc *BaseComponent) Socket() *Socket {
	return bc.socket
}

func (bc *BaseComponent) Name() string {
	return ""
}

func (bc *BaseComponent) Mount(ctx context.Context, params Params, session Session) error {
	return nil
}

func (bc *BaseComponent) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	return nil
}

func (bc *BaseComponent) HandleInfo(ctx context.Context, msg any) error {
	return nil
}

func (bc *BaseComponent) Terminate(ctx context.Context, reason TerminateReason) error {
	return nil
}
