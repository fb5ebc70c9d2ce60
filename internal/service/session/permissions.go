package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/syncroom/server/internal/domain"
	roomrepo "github.com/syncroom/server/internal/repository/room"
)

type GetRoomPermissionsParams struct {
	IdentityId string
	RoomId     string
}

func (s *service) GetRoomPermissions(ctx context.Context, params *GetRoomPermissionsParams) (domain.PermissionSet, error) {
	record, err := s.roomDir.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, roomrepo.ErrRoomNotFound) {
			return domain.PermissionSet{}, domain.ErrRoomNotFound
		}
		return domain.PermissionSet{}, fmt.Errorf("failed to get room: %w", err)
	}

	return record.DefaultPermissions, nil
}

type UpdateRoomPermissionsParams struct {
	IdentityId string
	RoomId     string
	Update     *domain.PermissionUpdate
}

// UpdateRoomPermissions changes the room's default set. Admin only;
// missing fields keep the current default. The change affects only
// identities joining after it.
func (s *service) UpdateRoomPermissions(ctx context.Context, params *UpdateRoomPermissionsParams) (RoomPermissionsResponse, error) {
	record, err := s.roomDir.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, roomrepo.ErrRoomNotFound) {
			return RoomPermissionsResponse{}, domain.ErrRoomNotFound
		}
		return RoomPermissionsResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	ident, err := s.identities.ById(params.IdentityId)
	if err != nil {
		return RoomPermissionsResponse{}, err
	}

	rs := s.lockRoom(params.RoomId)
	defer rs.mu.Unlock()

	defaults, err := s.permissions.UpdateRoomDefaults(ctx, record.ToDomain(), ident, params.Update)
	if err != nil {
		return RoomPermissionsResponse{}, err
	}

	return RoomPermissionsResponse{
		Defaults: defaults,
		Conns:    s.connsForRoom(params.RoomId, ""),
	}, nil
}

type GetUserPermissionsParams struct {
	IdentityId string
	TargetId   string
}

func (s *service) GetUserPermissions(ctx context.Context, params *GetUserPermissionsParams) (domain.PermissionSet, error) {
	target, err := s.identities.ById(params.TargetId)
	if err != nil {
		return domain.PermissionSet{}, err
	}

	return s.permissions.Snapshot(target), nil
}

type UpdateUserPermissionsParams struct {
	IdentityId string
	RoomId     string
	TargetId   string
	Update     *domain.PermissionUpdate
}

// UpdateUserPermissions applies the modifier's requested set to the
// target, limited to capabilities the modifier itself holds. The result
// lands in the identity store and the room's overlay so it survives the
// target's reconnection.
func (s *service) UpdateUserPermissions(ctx context.Context, params *UpdateUserPermissionsParams) (UserPermissionsResponse, error) {
	modifier, err := s.identities.ById(params.IdentityId)
	if err != nil {
		return UserPermissionsResponse{}, err
	}

	target, err := s.identities.ById(params.TargetId)
	if err != nil {
		return UserPermissionsResponse{}, err
	}
	if target.CurrentRoomId != params.RoomId {
		return UserPermissionsResponse{}, domain.ErrIdentityNotFound
	}

	rs := s.lockRoom(params.RoomId)
	defer rs.mu.Unlock()

	set, err := s.permissions.UpdateUserPermissions(params.RoomId, modifier, params.TargetId, params.Update)
	if err != nil {
		return UserPermissionsResponse{}, err
	}

	resp := UserPermissionsResponse{
		IdentityId:  params.TargetId,
		Permissions: set,
		Conns:       s.connsForRoom(params.RoomId, ""),
	}
	if target.Connected() {
		resp.TargetConn = target.Conn
	}

	return resp, nil
}
