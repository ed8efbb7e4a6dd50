// Package router wires HTTP routes, WebSocket upgrades and live sessions.
package router

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gabrielmiguelok/regform/pkg/core"
	"github.com/gabrielmiguelok/regform/pkg/health"
	"github.com/gabrielmiguelok/regform/pkg/logging"
	"github.com/gabrielmiguelok/regform/pkg/metrics"
	"github.com/gabrielmiguelok/regform/pkg/protocol"
	"github.com/gabrielmiguelok/regform/pkg/transport"
)

// Common router errors.
var (
	ErrNilRenderer = errors.New("component returned nil renderer")
	ErrNotJoined   = errors.New("join required before events")
	ErrAtCapacity  = errors.New("too many sessions")
	ErrShutdown    = errors.New("router is shutting down")
)

const tracerName = "github.com/gabrielmiguelok/regform/pkg/router"

// Options configures a Router.
type Options struct {
	Logger logging.Logger

	// Registry receives the router metrics and backs /metrics. A fresh
	// registry is used when nil.
	Registry *prometheus.Registry

	// Transport configures accepted WebSocket connections.
	Transport *transport.Config

	// Codec is the default wire codec; clients override it with ?vsn=.
	Codec string

	// EventsPerSecond and EventBurst limit inbound events per session.
	// Zero disables the limit.
	EventsPerSecond float64
	EventBurst      int

	// MaxSessions caps concurrent sessions. Zero means no cap.
	MaxSessions int

	// Health backs /healthz. The router adds its own session and
	// shutdown checks to it.
	Health *health.Checker

	Tracer trace.Tracer
}

// Router handles HTTP routing and owns the live sessions.
type Router struct {
	mux     chi.Router
	logger  logging.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	opts    Options

	baseCtx context.Context
	cancel  context.CancelFunc

	sessions map[string]*liveSession
	wg       sync.WaitGroup
	mu       sync.RWMutex
}

// New creates a router with the standard middleware stack, /healthz and
// /metrics mounted.
func New(opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger{}
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if opts.Health == nil {
		opts.Health = health.NewChecker("")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		mux:      chi.NewRouter(),
		logger:   opts.Logger,
		metrics:  metrics.New(opts.Registry),
		tracer:   opts.Tracer,
		opts:     opts,
		baseCtx:  ctx,
		cancel:   cancel,
		sessions: make(map[string]*liveSession),
	}

	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.RealIP)
	r.mux.Use(logging.RequestLogger(opts.Logger, requestID))
	r.mux.Use(middleware.Recoverer)
	r.mux.Use(SecureHeaders())

	opts.Health.AddCriticalCheck("accepting", health.DoneCheck(ctx.Done(), ErrShutdown.Error()), 0)
	opts.Health.AddCheck("sessions", health.SessionCapacityCheck(r.SessionCount, opts.MaxSessions), 0)

	r.mux.Method(http.MethodGet, "/healthz", opts.Health.ReadinessHandler())
	r.mux.Method(http.MethodGet, "/livez", opts.Health.LivenessHandler())
	r.mux.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{Registry: opts.Registry}))

	return r
}

// Metrics returns the router's metrics, for components that record their
// own outcomes.
func (r *Router) Metrics() *metrics.Metrics {
	return r.metrics
}

// Live mounts a component at path. GET path renders the full page; the
// WebSocket endpoint is path joined with "live".
func (r *Router) Live(path string, component func() core.Component) {
	r.mux.Get(path, func(w http.ResponseWriter, req *http.Request) {
		r.renderPage(w, req, component())
	})
	r.mux.Get(livePath(path), func(w http.ResponseWriter, req *http.Request) {
		r.handleWebSocket(w, req, component())
	})
}

func livePath(path string) string {
	return strings.TrimSuffix(path, "/") + "/live"
}

// Handle registers a plain handler. A pattern ending in "/" also matches
// everything below it.
func (r *Router) Handle(pattern string, handler http.Handler) {
	if strings.HasSuffix(pattern, "/") {
		r.mux.Handle(pattern+"*", handler)
		return
	}
	r.mux.Handle(pattern, handler)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// SessionCount returns the number of live sessions.
func (r *Router) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Shutdown terminates every live session and waits for their loops to
// exit or ctx to expire.
func (r *Router) Shutdown(ctx context.Context) error {
	// Cancelling under mu keeps reserve from adding to wg after this point.
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// renderPage renders a freshly mounted component as a full HTML response.
func (r *Router) renderPage(w http.ResponseWriter, req *http.Request, component core.Component) {
	ctx := req.Context()

	if err := component.Mount(ctx, extractParams(req), extractSession(req)); err != nil {
		logging.L(ctx).Error("mount failed", logging.String("component", component.Name()), logging.Err(err))
		http.Error(w, "mount failed", http.StatusInternalServerError)
		return
	}

	html, err := r.render(ctx, component)
	if err != nil {
		r.logger.Error("render failed", logging.String("component", component.Name()), logging.Err(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

func (r *Router) render(ctx context.Context, component core.Component) (string, error) {
	start := time.Now()
	defer r.metrics.ObserveRender(start)

	renderer := component.Render(ctx)
	if renderer == nil {
		return "", ErrNilRenderer
	}

	var buf bytes.Buffer
	if err := renderer.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// handleWebSocket upgrades the request and starts a session loop.
func (r *Router) handleWebSocket(w http.ResponseWriter, req *http.Request, component core.Component) {
	params := extractParams(req)

	codec, err := protocol.CodecFor(params.GetDefault("vsn", r.opts.Codec))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	socketID := uuid.NewString()
	if err := r.reserve(socketID); err != nil {
		if errors.Is(err, ErrAtCapacity) {
			r.logger.Warn("rejecting session", logging.Int("max_sessions", r.opts.MaxSessions))
		}
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	logger := r.logger.With(
		logging.String("socket_id", socketID),
		logging.String("component", component.Name()),
		logging.String("codec", codec.Name()),
	)

	ws := transport.NewWebSocketTransport(r.opts.Transport, codec, logger)
	if err := ws.Upgrade(w, req); err != nil {
		logger.Warn("websocket upgrade failed", logging.Err(err))
		r.release(socketID)
		return
	}

	socket := core.NewSocket(socketID, ws, 0)
	if bc, ok := component.(interface{ SetSocket(*core.Socket) }); ok {
		bc.SetSocket(socket)
	}

	s := &liveSession{
		router:    r,
		component: component,
		socket:    socket,
		transport: ws,
		params:    params,
		session:   extractSession(req),
		logger:    logger,
	}
	if r.opts.EventsPerSecond > 0 {
		burst := r.opts.EventBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(r.opts.EventsPerSecond), burst)
	}

	r.mu.Lock()
	r.sessions[socketID] = s
	r.mu.Unlock()
	r.metrics.SessionOpened()
	logger.Info("session opened")

	// The connection outlives the HTTP request, so the loop runs on the
	// router's context rather than req.Context().
	go s.run(logging.ContextWithLogger(r.baseCtx, logger))
}

// reserve claims a session slot for id before the upgrade. The capacity
// check and the claim share one critical section so concurrent upgrades
// cannot overshoot MaxSessions.
func (r *Router) reserve(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.baseCtx.Err() != nil {
		return ErrShutdown
	}
	if limit := r.opts.MaxSessions; limit > 0 && len(r.sessions) >= limit {
		return ErrAtCapacity
	}
	r.sessions[id] = nil
	r.wg.Add(1)
	return nil
}

// release frees a slot whose upgrade failed.
func (r *Router) release(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	r.wg.Done()
}

func (r *Router) removeSession(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	r.metrics.SessionClosed()
	r.wg.Done()
}

// extractSession collects per-connection data from the handshake.
func extractSession(req *http.Request) core.Session {
	session := make(core.Session)
	if id := requestID(req); id != "" {
		session["request_id"] = id
	}
	session["remote_addr"] = req.RemoteAddr
	return session
}

// extractParams extracts query string parameters.
func extractParams(req *http.Request) core.Params {
	params := make(core.Params)
	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}
