package router

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gabrielmiguelok/regform/pkg/core"
	"github.com/gabrielmiguelok/regform/pkg/logging"
	"github.com/gabrielmiguelok/regform/pkg/protocol"
	"github.com/gabrielmiguelok/regform/pkg/transport"
)

// liveSession binds one WebSocket connection to one component. All
// component calls happen on the goroutine running run.
type liveSession struct {
	router    *Router
	component core.Component
	socket    *core.Socket
	transport *transport.WebSocketTransport
	params    core.Params
	session   core.Session
	limiter   *rate.Limiter
	logger    logging.Logger

	mounted bool
}

// run serializes client messages and mailbox messages until the
// connection closes, the client leaves or the router shuts down.
func (s *liveSession) run(ctx context.Context) {
	reason := core.TerminateNormal
	defer func() {
		if s.mounted {
			if err := s.component.Terminate(context.Background(), reason); err != nil {
				s.logger.Warn("terminate failed", logging.Err(err))
			}
		}
		s.socket.Close()
		s.router.removeSession(s.socket.ID())
		s.logger.Info("session closed", logging.String("reason", reason.String()))
	}()

	for {
		select {
		case msg := <-s.transport.Receive():
			if !s.handleMessage(ctx, msg) {
				return
			}

		case info := <-s.socket.Info():
			s.handleInfo(ctx, info)

		case <-s.transport.CloseChan():
			return

		case <-ctx.Done():
			reason = core.TerminateShutdown
			return
		}
	}
}

// handleMessage processes one client message. It returns false when the
// session should end.
func (s *liveSession) handleMessage(ctx context.Context, msg *protocol.Message) bool {
	switch msg.Event {
	case protocol.EventHeartbeat:
		s.reply(msg, nil)

	case protocol.EventJoin:
		s.handleJoin(ctx, msg)

	case protocol.EventLeave:
		s.reply(msg, nil)
		return false

	default:
		if !s.mounted {
			s.sendError(msg, ErrNotJoined)
			return true
		}
		if s.limiter != nil && !s.limiter.Allow() {
			s.router.metrics.EventDropped()
			s.logger.Warn("event rate exceeded, dropping", logging.String("event", msg.Event))
			return true
		}
		err := s.dispatchEvent(ctx, msg)
		switch {
		case errors.Is(err, core.SkipRender):
			s.reply(msg, nil)
		case err != nil:
			s.sendError(msg, err)
		default:
			s.pushRender(ctx, msg.Ref)
		}
	}
	return true
}

// handleJoin mounts the component on first join and replies with the
// rendered HTML.
func (s *liveSession) handleJoin(ctx context.Context, msg *protocol.Message) {
	s.socket.Join(msg.Topic)
	if !s.mounted {
		if err := s.component.Mount(ctx, s.params, s.session); err != nil {
			s.logger.Error("mount failed", logging.Err(err))
			s.sendError(msg, err)
			return
		}
		s.mounted = true
	}

	html, err := s.router.render(ctx, s.component)
	if err != nil {
		s.logger.Error("render failed", logging.Err(err))
		s.sendError(msg, err)
		return
	}
	s.reply(msg, map[string]any{"html": html})
}

// dispatchEvent runs one form event inside a span.
func (s *liveSession) dispatchEvent(ctx context.Context, msg *protocol.Message) error {
	ctx, span := s.router.tracer.Start(ctx, "event "+msg.Event,
		trace.WithAttributes(
			attribute.String("regform.event", msg.Event),
			attribute.String("regform.socket_id", s.socket.ID()),
		),
	)
	defer span.End()

	payload := msg.Payload
	if payload == nil {
		payload = make(map[string]any)
	}

	start := time.Now()
	err := s.component.HandleEvent(ctx, msg.Event, payload)
	if errors.Is(err, core.SkipRender) {
		s.router.metrics.ObserveEvent(msg.Event, start, nil)
		return err
	}
	s.router.metrics.ObserveEvent(msg.Event, start, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Debug("event rejected", logging.String("event", msg.Event), logging.Err(err))
	}
	return err
}

// handleInfo delivers a mailbox message and pushes the new HTML.
func (s *liveSession) handleInfo(ctx context.Context, info any) {
	if !s.mounted {
		return
	}
	if err := s.component.HandleInfo(ctx, info); err != nil {
		s.logger.Warn("info handler failed", logging.Err(err))
		return
	}
	html, err := s.router.render(ctx, s.component)
	if err != nil {
		s.logger.Error("render failed", logging.Err(err))
		return
	}
	if err := s.socket.Push(protocol.EventRender, map[string]any{"html": html}); err != nil {
		s.logger.Debug("render push failed", logging.Err(err))
	}
}

// pushRender answers an event with a render frame carrying its ref.
func (s *liveSession) pushRender(ctx context.Context, ref string) {
	html, err := s.router.render(ctx, s.component)
	if err != nil {
		s.logger.Error("render failed", logging.Err(err))
		return
	}
	if err := s.send(&protocol.Message{
		Ref:     ref,
		Topic:   s.socket.Topic(),
		Event:   protocol.EventRender,
		Payload: map[string]any{"html": html},
	}); err != nil {
		s.logger.Debug("render push failed", logging.Err(err))
	}
}

func (s *liveSession) reply(msg *protocol.Message, response map[string]any) {
	s.send(protocol.Reply(msg.Ref, msg.Topic, "ok", response))
}

func (s *liveSession) sendError(msg *protocol.Message, err error) {
	s.send(protocol.ErrorReply(msg.Ref, msg.Topic, err.Error()))
}

func (s *liveSession) send(msg *protocol.Message) error {
	return s.socket.Send(core.Message{
		Ref:     msg.Ref,
		Topic:   msg.Topic,
		Event:   msg.Event,
		Payload: msg.Payload,
	})
}
