package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var ErrUnknownMessageType = errors.New("unknown message type")

// Conn is the part of a websocket connection the router needs.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
}

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[T any] func(ctx context.Context, conn Conn, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

// ErrorHandler receives every error returned by a handler or produced while decoding a message.
type ErrorHandler func(ctx context.Context, conn Conn, err error)

type route func(ctx context.Context, conn Conn, payload json.RawMessage) error

type WSRouter struct {
	routes      map[string]route
	middlewares []Middleware
	onError     ErrorHandler
}

func New() *WSRouter {
	return &WSRouter{
		routes:  make(map[string]route),
		onError: func(context.Context, Conn, error) {},
	}
}

func (r *WSRouter) Use(mw ...Middleware) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *WSRouter) OnError(h ErrorHandler) {
	r.onError = h
}

// Handle registers handler for messageType. The payload is decoded into T before
// the middleware chain runs. Middlewares added with Use after Handle do not wrap it.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	var next HandlerFunc[any] = func(ctx context.Context, conn Conn, payload any) error {
		return handler(ctx, conn, payload.(T))
	}
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		next = r.middlewares[i](next)
	}

	r.routes[messageType] = func(ctx context.Context, conn Conn, raw json.RawMessage) error {
		var payload T
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("failed to decode %s payload: %w", messageType, err)
			}
		}

		return next(ctx, conn, payload)
	}
}

// ServeConn reads messages until the connection fails and dispatches each one
// to its handler. The returned error is the read error that ended the loop.
func (r *WSRouter) ServeConn(ctx context.Context, conn Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			// a truncated frame such as "{" surfaces as io.ErrUnexpectedEOF
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
				r.onError(ctx, conn, fmt.Errorf("failed to decode message: %w", err))
				continue
			}

			return err
		}

		r.dispatch(ctx, conn, &msg)
	}
}

func (r *WSRouter) dispatch(ctx context.Context, conn Conn, msg *message) {
	ctx = context.WithValue(ctx, messageTypeKey, msg.Type)

	defer func() {
		if rec := recover(); rec != nil {
			r.onError(ctx, conn, fmt.Errorf("panic in %s handler: %v", msg.Type, rec))
		}
	}()

	handler, exists := r.routes[msg.Type]
	if !exists {
		r.onError(ctx, conn, fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type))
		return
	}

	if err := handler(ctx, conn, msg.Payload); err != nil {
		r.onError(ctx, conn, err)
	}
}
