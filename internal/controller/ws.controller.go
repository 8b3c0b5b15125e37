package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/internal/service/room"
	"github.com/sharetube/watchtogether/pkg/ctxlogger"
	"github.com/sharetube/watchtogether/pkg/wsrouter"
)

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	cl := newClient(conn)
	ctx := context.WithValue(r.Context(), clientCtxKey, cl)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("conn_id", cl.Id()))

	if err := c.roomService.ConnectMember(ctx, &room.ConnectMemberParams{Conn: cl}); err != nil {
		c.logger.WarnContext(ctx, "failed to connect member", "error", err)
		return
	}
	defer c.disconnect(ctx, cl.Id())

	if err := c.writeToConn(ctx, cl, &Output{
		Type:    typeConnected,
		Payload: ConnectedOutput{ConnId: cl.Id()},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to write connected", "error", err)
		return
	}

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
			c.logger.InfoContext(ctx, "connection closed unexpectedly", "error", err)
		} else {
			c.logger.DebugContext(ctx, "connection closed", "error", err)
		}
	}
}

func (c controller) disconnect(ctx context.Context, connId string) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	disconnectResp, err := c.roomService.DisconnectMember(ctx, &room.DisconnectMemberParams{ConnId: connId})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect member", "error", err)
		return
	}

	for _, left := range disconnectResp.Left {
		if err := c.notifyLeft(ctx, left); err != nil {
			c.logger.InfoContext(ctx, "failed to notify room about leave", "room_id", left.RoomId, "error", err)
		}
	}
}

// handleWSError reports auth failures to the sender and only logs the rest.
func (c controller) handleWSError(ctx context.Context, _ *websocket.Conn, err error) {
	var authErr *room.AuthError
	if errors.As(err, &authErr) {
		sender := c.getClientFromCtx(ctx)
		if sender == nil {
			return
		}

		output := &Output{
			Type:    typeErrorMessage,
			Payload: ErrorMessageOutput{Message: authErr.Message},
		}
		switch wsrouter.GetMessageTypeFromCtx(ctx) {
		case "join", "create_room":
			output = &Output{
				Type:    typeJoinFailed,
				Payload: JoinFailedOutput{Reason: authErr.Reason},
			}
		}

		c.logger.InfoContext(ctx, "request rejected", "reason", authErr.Reason, "error", err)
		if err := c.writeToConn(ctx, sender, output); err != nil {
			c.logger.DebugContext(ctx, "failed to report rejection", "error", err)
		}
		return
	}

	switch {
	case errors.Is(err, wsrouter.ErrInvalidPayload),
		errors.Is(err, wsrouter.ErrUnknownMessageType):
		c.logger.InfoContext(ctx, "message dropped", "error", err)
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrConnNotFound),
		errors.Is(err, room.ErrNotMember),
		errors.Is(err, room.ErrMissingUrl),
		errors.Is(err, room.ErrInvalidOrder),
		errors.Is(err, room.ErrInvalidEvent),
		errors.Is(err, room.ErrEmptyRoomId):
		c.logger.DebugContext(ctx, "message ignored", "error", err)
	default:
		c.logger.WarnContext(ctx, "failed to handle message", "error", err)
	}
}
