package session

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

type ConnectParams struct {
	Conn        *websocket.Conn
	Token       string
	DisplayName string
}

// Connect resolves or creates the identity behind a fresh connection.
// An invalid or expired token is not an error: the participant simply
// starts over with a new identity.
func (s *service) Connect(ctx context.Context, params *ConnectParams) (ConnectResponse, error) {
	var identityId string
	if params.Token != "" {
		id, err := s.parseToken(params.Token)
		if err != nil {
			s.logger.DebugContext(ctx, "stale identity token", "error", err)
		} else {
			identityId = id
		}
	}

	ident := s.identities.ResolveOrCreate(identityId, params.DisplayName, params.Conn)

	token, err := s.generateToken(ident.Id)
	if err != nil {
		return ConnectResponse{}, fmt.Errorf("failed to generate token: %w", err)
	}

	return ConnectResponse{
		Identity:   identityView(ident),
		Token:      token,
		UsersCount: s.identities.ConnectedCount(),
		Conns:      s.identities.Connections(),
	}, nil
}

// Disconnect marks the identity disconnected (soft delete; the grace
// period keeps it resolvable) and reports the room it was in so the
// remaining members can be notified.
func (s *service) Disconnect(ctx context.Context, conn *websocket.Conn) (DisconnectResponse, error) {
	ident, err := s.identities.MarkDisconnected(conn)
	if err != nil {
		return DisconnectResponse{}, err
	}

	resp := DisconnectResponse{
		UsersCount: s.identities.ConnectedCount(),
		AllConns:   s.identities.Connections(),
	}

	view := identityView(ident)
	resp.Identity = &view

	if ident.CurrentRoomId != "" {
		roomId := ident.CurrentRoomId
		rs := s.lockRoom(roomId)
		if s.onlineInRoom(roomId) == 0 && rs.emptySince == nil {
			now := time.Now()
			rs.emptySince = &now
		}
		rs.mu.Unlock()

		resp.RoomId = roomId
		resp.Members = s.memberViews(roomId)
		resp.RoomConns = s.connsForRoom(roomId, ident.Id)
	}

	return resp, nil
}
