package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/syncroom/server/internal/domain"
	roomrepo "github.com/syncroom/server/internal/repository/room"
)

type CreateRoomParams struct {
	CreatorId string
	Password  string
}

func (s *service) CreateRoom(ctx context.Context, params *CreateRoomParams) (*domain.Room, error) {
	if _, err := s.identities.ById(params.CreatorId); err != nil {
		return nil, err
	}

	record, err := s.roomDir.CreateRoom(ctx, &roomrepo.CreateRoomParams{
		CreatorId: params.CreatorId,
		Password:  params.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	s.logger.InfoContext(ctx, "room created", "room_id", record.Id, "creator_id", params.CreatorId)
	return record.ToDomain(), nil
}

func (s *service) GetRoomInfo(ctx context.Context, roomId string) (*domain.Room, error) {
	record, err := s.roomDir.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, roomrepo.ErrRoomNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return record.ToDomain(), nil
}

func (s *service) ValidateRoomPassword(ctx context.Context, roomId string, password string) (bool, error) {
	ok, err := s.roomDir.ValidatePassword(ctx, roomId, password)
	if err != nil {
		if errors.Is(err, roomrepo.ErrRoomNotFound) {
			return false, domain.ErrRoomNotFound
		}
		return false, fmt.Errorf("failed to validate password: %w", err)
	}

	return ok, nil
}

// DeleteRoom removes the room on behalf of its creator, cascading to
// the playlist engine state and the permission overlay.
func (s *service) DeleteRoom(ctx context.Context, roomId string, requesterId string) error {
	record, err := s.roomDir.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, roomrepo.ErrRoomNotFound) {
			return domain.ErrRoomNotFound
		}
		return fmt.Errorf("failed to get room: %w", err)
	}

	if record.CreatorId != requesterId {
		return domain.ErrPermissionDenied
	}

	rs := s.lockRoom(roomId)
	for identityId := range rs.members {
		// never detach an identity that has already moved to another room
		if ident, err := s.identities.ById(identityId); err != nil || ident.CurrentRoomId != roomId {
			continue
		}
		if err := s.identities.SetRoom(identityId, ""); err != nil {
			s.logger.DebugContext(ctx, "failed to detach member", "identity_id", identityId, "error", err)
		}
	}
	rs.mu.Unlock()

	if err := s.roomDir.DeleteRoom(ctx, roomId); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	s.dropRoom(roomId)

	s.logger.InfoContext(ctx, "room deleted", "room_id", roomId)
	return nil
}
