package session

import (
	"context"
	"time"

	"github.com/syncroom/server/internal/domain"
)

type SyncActionParams struct {
	IdentityId string
	RoomId     string
	Action     string
	Time       float64
}

// RelaySync forwards a play/pause/seek action to the other room members
// as a SyncEvent. The relay is optimistic: the server keeps no canonical
// play position, it only rebroadcasts what the sender claims. The event
// excludes the sender's own connection.
func (s *service) RelaySync(ctx context.Context, params *SyncActionParams) (SyncRelayResponse, error) {
	ident, err := s.requireCapability(params.IdentityId, func(p domain.PermissionSet) bool { return p.InteractionVideo })
	if err != nil {
		return SyncRelayResponse{}, err
	}

	switch params.Action {
	case domain.SyncActionPlay, domain.SyncActionPause, domain.SyncActionSeek:
	default:
		return SyncRelayResponse{}, domain.NewError(domain.KindValidation, "unknown sync action: %s", params.Action)
	}

	rs := s.lockRoom(params.RoomId)
	_, hasCurrent := s.engine.Current(params.RoomId)
	rs.mu.Unlock()
	if !hasCurrent {
		return SyncRelayResponse{}, domain.ErrVideoNotFound
	}

	return SyncRelayResponse{
		Event: domain.SyncEvent{
			Action:    params.Action,
			Time:      params.Time,
			EmittedAt: time.Now(),
		},
		Conns: s.connsForRoom(params.RoomId, ident.Id),
	}, nil
}

type RequestSyncParams struct {
	IdentityId string
	RoomId     string
}

// RequestSync answers with the playlist engine's snapshot only. The
// position is a best-effort estimate from the current item's start
// time; other clients are never polled. This is a documented consistency
// trade-off, not linearizable playback state.
func (s *service) RequestSync(ctx context.Context, params *RequestSyncParams) (SyncSnapshot, error) {
	if _, err := s.identities.ById(params.IdentityId); err != nil {
		return SyncSnapshot{}, err
	}

	rs := s.lockRoom(params.RoomId)
	defer rs.mu.Unlock()

	state := s.engine.Ensure(params.RoomId)

	return syncSnapshot(&state), nil
}
