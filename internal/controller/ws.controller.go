package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/service"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

func (c *controller) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	conn := newWSConn(ws)
	defer conn.close()
	connId := uuid.NewString()

	ctx := context.WithValue(r.Context(), connIdCtxKey, connId)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("conn_id", connId))

	if err := c.roomService.ConnectMember(ctx, &service.ConnectMemberParams{
		Conn:   conn,
		ConnId: connId,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to connect member", "error", err)
		return
	}
	defer c.disconnect(context.WithoutCancel(ctx), connId)

	go func() {
		if err := conn.writePump(); err != nil {
			c.logger.DebugContext(ctx, "write pump stopped", "error", err)
		}
	}()

	c.logger.InfoContext(ctx, "connection opened")

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
			c.logger.InfoContext(ctx, "connection closed unexpectedly", "error", err)
			return
		}
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

func (c *controller) disconnect(ctx context.Context, connId string) {
	resp, err := c.roomService.DisconnectMember(ctx, &service.LeaveRoomParams{ConnId: connId})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect member", "error", err)
		return
	}

	if resp.RoomCode != "" {
		c.logger.InfoContext(ctx, "member disconnected", "room_code", resp.RoomCode, "room_deleted", resp.IsRoomDeleted)
	}
}

// handleWSError logs handler errors. Expected rejections such as non-host
// playback updates are dropped without a reply to the client.
func (c *controller) handleWSError(ctx context.Context, _ wsrouter.Conn, err error) {
	var validationErrs validation.Errors
	switch {
	case errors.Is(err, service.ErrPermissionDenied),
		errors.Is(err, service.ErrNotInRoom),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, wsrouter.ErrUnknownMessageType),
		errors.As(err, &validationErrs):
		c.logger.DebugContext(ctx, "websocket message dropped", "error", err)
	default:
		c.logger.WarnContext(ctx, "failed to handle websocket message", "error", err)
	}
}
