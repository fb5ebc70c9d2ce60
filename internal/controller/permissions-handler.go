package controller

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/service/session"
)

func (c controller) handleGetRoomPermissions(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	identityId, roomId, err := c.roomScope(ctx)
	if err != nil {
		return err
	}

	defaults, err := c.sessionService.GetRoomPermissions(ctx, &session.GetRoomPermissionsParams{
		IdentityId: identityId,
		RoomId:     roomId,
	})
	if err != nil {
		return err
	}

	return c.writeToConn(ctx, conn, &Output{
		Type:    "room-permissions",
		Payload: map[string]any{"permissions": defaults},
	})
}

type UpdateRoomPermissionsInput struct {
	Permissions *domain.PermissionUpdate `json:"permissions"`
}

func (c controller) handleUpdateRoomPermissions(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input UpdateRoomPermissionsInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}
	if input.Permissions == nil {
		return domain.NewError(domain.KindValidation, "permissions is required")
	}

	identityId, roomId, err := c.roomScope(ctx)
	if err != nil {
		return err
	}

	resp, err := c.sessionService.UpdateRoomPermissions(ctx, &session.UpdateRoomPermissionsParams{
		IdentityId: identityId,
		RoomId:     roomId,
		Update:     input.Permissions,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "room-permissions-updated",
		Payload: map[string]any{"permissions": resp.Defaults},
	})

	return nil
}

type GetUserPermissionsInput struct {
	IdentityId string `json:"identity_id"`
}

func (c controller) handleGetUserPermissions(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input GetUserPermissionsInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	permissions, err := c.sessionService.GetUserPermissions(ctx, &session.GetUserPermissionsParams{
		IdentityId: c.getIdentityIdFromCtx(ctx),
		TargetId:   input.IdentityId,
	})
	if err != nil {
		return err
	}

	return c.writeToConn(ctx, conn, &Output{
		Type: "user-permissions",
		Payload: map[string]any{
			"identity_id": input.IdentityId,
			"permissions": permissions,
		},
	})
}

type UpdateUserPermissionsInput struct {
	IdentityId  string                   `json:"identity_id"`
	Permissions *domain.PermissionUpdate `json:"permissions"`
}

func (c controller) handleUpdateUserPermissions(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input UpdateUserPermissionsInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}
	if input.Permissions == nil {
		return domain.NewError(domain.KindValidation, "permissions is required")
	}

	identityId, roomId, err := c.roomScope(ctx)
	if err != nil {
		return err
	}

	resp, err := c.sessionService.UpdateUserPermissions(ctx, &session.UpdateUserPermissionsParams{
		IdentityId: identityId,
		RoomId:     roomId,
		TargetId:   input.IdentityId,
		Update:     input.Permissions,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "user-permissions-updated",
		Payload: map[string]any{
			"identity_id": resp.IdentityId,
			"permissions": resp.Permissions,
		},
	})

	return nil
}
