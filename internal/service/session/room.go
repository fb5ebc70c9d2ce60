package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/syncroom/server/internal/domain"
	roomrepo "github.com/syncroom/server/internal/repository/room"
)

type JoinRoomParams struct {
	IdentityId string
	RoomId     string
	Password   string
}

// JoinRoom attaches the identity to the room. Permissions are seeded
// from the overlay when the participant was customized on an earlier
// visit, from the room defaults otherwise; a reconnecting participant
// who never left keeps its current set.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	record, err := s.roomDir.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, roomrepo.ErrRoomNotFound) {
			return JoinRoomResponse{}, domain.ErrRoomNotFound
		}
		return JoinRoomResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	if record.RequiresPassword {
		ok, err := s.roomDir.ValidatePassword(ctx, params.RoomId, params.Password)
		if err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to validate password: %w", err)
		}
		if !ok {
			return JoinRoomResponse{}, domain.ErrWrongPassword
		}
	}

	ident, err := s.identities.ById(params.IdentityId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	// switching rooms implicitly leaves the old one
	if ident.CurrentRoomId != "" && ident.CurrentRoomId != params.RoomId {
		old := s.lockRoom(ident.CurrentRoomId)
		delete(old.members, ident.Id)
		if len(old.members) == 0 && old.emptySince == nil {
			now := time.Now()
			old.emptySince = &now
		}
		old.mu.Unlock()
	}

	rs := s.lockRoom(params.RoomId)
	defer rs.mu.Unlock()

	room := record.ToDomain()

	// a rejoin within the grace window keeps the current set
	if ident.CurrentRoomId != params.RoomId {
		set := s.permissions.JoinSet(room, ident.Id)
		if err := s.identities.ReplacePermissions(ident.Id, set); err != nil {
			return JoinRoomResponse{}, err
		}
		ident.Permissions = set
	}

	if err := s.identities.SetRoom(ident.Id, params.RoomId); err != nil {
		return JoinRoomResponse{}, err
	}
	ident.CurrentRoomId = params.RoomId

	rs.members[ident.Id] = struct{}{}
	rs.emptySince = nil

	if err := s.roomDir.TouchActivity(ctx, params.RoomId); err != nil {
		s.logger.WarnContext(ctx, "failed to touch room activity", "error", err)
	}

	chat := append([]domain.ChatMessage(nil), rs.chat...)

	return JoinRoomResponse{
		Joined:   identityView(ident),
		Members:  s.memberViews(params.RoomId),
		Playlist: s.engine.Ensure(params.RoomId),
		Chat:     chat,
		Room:     room,
		Conns:    s.connsForRoom(params.RoomId, ident.Id),
	}, nil
}

type LeaveRoomParams struct {
	IdentityId string
	RoomId     string
}

// LeaveRoom detaches the identity. The playlist and permission overlay
// stay: an empty room persists for a grace window before the reaper
// deletes it.
func (s *service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	ident, err := s.identities.ById(params.IdentityId)
	if err != nil {
		return LeaveRoomResponse{}, err
	}
	if ident.CurrentRoomId != params.RoomId {
		return LeaveRoomResponse{}, domain.ErrRoomNotFound
	}

	rs := s.lockRoom(params.RoomId)
	defer rs.mu.Unlock()

	delete(rs.members, ident.Id)
	if err := s.identities.SetRoom(ident.Id, ""); err != nil {
		return LeaveRoomResponse{}, err
	}

	if len(rs.members) == 0 && rs.emptySince == nil {
		now := time.Now()
		rs.emptySince = &now
	}

	return LeaveRoomResponse{
		LeftId:  ident.Id,
		Members: s.memberViews(params.RoomId),
		Conns:   s.connsForRoom(params.RoomId, ident.Id),
	}, nil
}

type ChangeUsernameParams struct {
	IdentityId  string
	DisplayName string
}

func (s *service) ChangeUsername(ctx context.Context, params *ChangeUsernameParams) (ChangeUsernameResponse, error) {
	name := strings.TrimSpace(params.DisplayName)
	if name == "" {
		return ChangeUsernameResponse{}, domain.NewError(domain.KindValidation, "display name must not be empty")
	}

	if err := s.identities.Rename(params.IdentityId, name); err != nil {
		return ChangeUsernameResponse{}, err
	}

	ident, err := s.identities.ById(params.IdentityId)
	if err != nil {
		return ChangeUsernameResponse{}, err
	}

	var conns = s.identities.Connections()
	if ident.CurrentRoomId != "" {
		conns = s.connsForRoom(ident.CurrentRoomId, "")
	}

	return ChangeUsernameResponse{
		Identity: identityView(ident),
		Conns:    conns,
	}, nil
}
