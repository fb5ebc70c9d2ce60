package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/metrics"
	"github.com/syncroom/server/internal/service/session"
)

// serveWS upgrades the connection, resolves the participant's identity
// and runs the message loop until the connection drops. The disconnect
// is soft: the identity stays resolvable for the grace period.
func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("auth-token")
	displayName := r.URL.Query().Get("display-name")

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	connectResp, err := c.sessionService.Connect(r.Context(), &session.ConnectParams{
		Conn:        conn,
		Token:       token,
		DisplayName: displayName,
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to connect", "error", err)
		return
	}

	metrics.WsConnections.Inc()
	defer metrics.WsConnections.Dec()

	if err := c.writeToConn(r.Context(), conn, &Output{
		Type: "user-registered",
		Payload: map[string]any{
			"identity":   connectResp.Identity,
			"auth_token": connectResp.Token,
		},
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write json", "error", err)
		return
	}

	c.broadcast(r.Context(), connectResp.Conns, &Output{
		Type:    "users-count",
		Payload: map[string]int{"count": connectResp.UsersCount},
	})

	ctx := context.WithValue(r.Context(), identityIdCtxKey, connectResp.Identity.Id)

	defer c.disconnect(ctx, conn)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(ctx, "connection closed", "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, conn *websocket.Conn) {
	resp, err := c.sessionService.Disconnect(ctx, conn)
	if err != nil {
		c.logger.DebugContext(ctx, "failed to disconnect", "error", err)
		return
	}

	if resp.RoomId != "" && resp.Identity != nil {
		c.broadcast(ctx, resp.RoomConns, &Output{
			Type: "user-left",
			Payload: map[string]any{
				"left_id": resp.Identity.Id,
				"members": resp.Members,
			},
		})
	}

	c.broadcast(ctx, resp.AllConns, &Output{
		Type:    "users-count",
		Payload: map[string]int{"count": resp.UsersCount},
	})
}

func (c controller) unmarshalPayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return domain.NewError(domain.KindValidation, "missing payload")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return domain.NewError(domain.KindValidation, "malformed payload")
	}

	return nil
}

// roomScope resolves the sender's identity and current room; room-
// scoped actions are rejected when the sender has not joined one.
func (c controller) roomScope(ctx context.Context) (identityId string, roomId string, err error) {
	identityId = c.getIdentityIdFromCtx(ctx)

	roomId, err = c.sessionService.CurrentRoomId(identityId)
	if err != nil {
		return "", "", err
	}
	if roomId == "" {
		return "", "", domain.NewError(domain.KindValidation, "not in a room")
	}

	return identityId, roomId, nil
}

type JoinRoomInput struct {
	RoomId   string `json:"room_id"`
	Password string `json:"password"`
}

func (c controller) handleJoinRoom(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input JoinRoomInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}
	if input.RoomId == "" {
		return domain.NewError(domain.KindValidation, "room_id is required")
	}

	joinResp, err := c.sessionService.JoinRoom(ctx, &session.JoinRoomParams{
		IdentityId: c.getIdentityIdFromCtx(ctx),
		RoomId:     input.RoomId,
		Password:   input.Password,
	})
	if err != nil {
		return err
	}

	if err := c.writeToConn(ctx, conn, &Output{
		Type: "room-joined",
		Payload: map[string]any{
			"room":     joinResp.Room,
			"identity": joinResp.Joined,
			"members":  joinResp.Members,
			"playlist": joinResp.Playlist,
			"chat":     joinResp.Chat,
		},
	}); err != nil {
		return err
	}

	c.broadcast(ctx, joinResp.Conns, &Output{
		Type: "user-joined",
		Payload: map[string]any{
			"joined_member": joinResp.Joined,
			"members":       joinResp.Members,
		},
	})

	return nil
}

func (c controller) handleLeaveRoom(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	identityId, roomId, err := c.roomScope(ctx)
	if err != nil {
		return err
	}

	leaveResp, err := c.sessionService.LeaveRoom(ctx, &session.LeaveRoomParams{
		IdentityId: identityId,
		RoomId:     roomId,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, leaveResp.Conns, &Output{
		Type: "user-left",
		Payload: map[string]any{
			"left_id": leaveResp.LeftId,
			"members": leaveResp.Members,
		},
	})

	return c.writeToConn(ctx, conn, &Output{
		Type:    "user-left",
		Payload: map[string]any{"left_id": leaveResp.LeftId},
	})
}

type ChangeUsernameInput struct {
	DisplayName string `json:"display_name"`
}

func (c controller) handleChangeUsername(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input ChangeUsernameInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	resp, err := c.sessionService.ChangeUsername(ctx, &session.ChangeUsernameParams{
		IdentityId:  c.getIdentityIdFromCtx(ctx),
		DisplayName: input.DisplayName,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "username-updated",
		Payload: map[string]any{"identity": resp.Identity},
	})

	return nil
}

type ChatMessageInput struct {
	Text string `json:"text"`
}

func (c controller) handleChatMessage(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input ChatMessageInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	identityId, roomId, err := c.roomScope(ctx)
	if err != nil {
		return err
	}

	resp, err := c.sessionService.SendChatMessage(ctx, &session.ChatMessageParams{
		IdentityId: identityId,
		RoomId:     roomId,
		Text:       input.Text,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "chat-message",
		Payload: map[string]any{"message": resp.Message},
	})

	return nil
}

type DeleteChatMessageInput struct {
	MessageId string `json:"message_id"`
}

func (c controller) handleDeleteChatMessage(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input DeleteChatMessageInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	identityId, roomId, err := c.roomScope(ctx)
	if err != nil {
		return err
	}

	resp, err := c.sessionService.DeleteChatMessage(ctx, &session.DeleteChatMessageParams{
		IdentityId: identityId,
		RoomId:     roomId,
		MessageId:  input.MessageId,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "chat-message-deleted",
		Payload: map[string]any{"message_id": resp.MessageId},
	})

	return nil
}
