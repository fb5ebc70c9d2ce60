package session

import (
	"sort"

	"github.com/gorilla/websocket"

	"github.com/syncroom/server/internal/domain"
)

// roomIdentities returns the identities attached to the room in a
// stable order.
func (s *service) roomIdentities(roomId string) []*domain.Identity {
	idents := s.identities.InRoom(roomId)
	sort.Slice(idents, func(i, j int) bool {
		return idents[i].JoinedAt.Before(idents[j].JoinedAt)
	})

	return idents
}

// connsForRoom returns live connections of the room's participants,
// optionally excluding one identity (the action's sender).
func (s *service) connsForRoom(roomId string, excludeId string) []*websocket.Conn {
	idents := s.identities.InRoom(roomId)

	conns := make([]*websocket.Conn, 0, len(idents))
	for _, ident := range idents {
		if ident.Id == excludeId || !ident.Connected() {
			continue
		}
		conns = append(conns, ident.Conn)
	}

	return conns
}

func (s *service) memberViews(roomId string) []IdentityView {
	idents := s.roomIdentities(roomId)

	members := make([]IdentityView, 0, len(idents))
	for _, ident := range idents {
		members = append(members, identityView(ident))
	}

	return members
}

// CurrentRoomId returns the room the identity is attached to, if any.
func (s *service) CurrentRoomId(identityId string) (string, error) {
	ident, err := s.identities.ById(identityId)
	if err != nil {
		return "", err
	}

	return ident.CurrentRoomId, nil
}

// onlineInRoom counts participants holding a live connection.
func (s *service) onlineInRoom(roomId string) int {
	n := 0
	for _, ident := range s.identities.InRoom(roomId) {
		if ident.Connected() {
			n++
		}
	}

	return n
}
