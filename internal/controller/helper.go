package controller

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/sharetube/watchparty/internal/service"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

func (c *controller) generateTimeBasedId() string {
	return ulid.Make().String()
}

func (c *controller) writeToConn(ctx context.Context, conn wsrouter.Conn, msg *service.Message) error {
	if err := conn.WriteJSON(msg); err != nil {
		c.logger.DebugContext(ctx, "failed to write to conn", "type", msg.Type, "error", err)
		return err
	}

	return nil
}
