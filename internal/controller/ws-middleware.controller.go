package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/sharetube/watchparty/pkg/ctxlogger"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

func (c *controller) wsRequestIdMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
		return func(ctx context.Context, conn wsrouter.Conn, payload any) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("ws_request_id", c.generateTimeBasedId()))
			return next(ctx, conn, payload)
		}
	}
}

func (c *controller) loggerWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
		return func(ctx context.Context, conn wsrouter.Conn, payload any) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			c.logger.DebugContext(ctx, "websocket message received", "payload", payload)

			start := time.Now()

			err := next(ctx, conn, payload)

			c.logger.InfoContext(ctx, "websocket message handled",
				"processing_time_us", time.Since(start).Microseconds(),
				"ok", err == nil,
			)

			return err
		}
	}
}
