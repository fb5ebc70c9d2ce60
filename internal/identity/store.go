package identity

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/pkg/randstr"
)

// Store tracks anonymous participant identities and their live
// connection, independent of rooms. An identity holds at most one live
// connection; a lost connection marks it disconnected instead of
// deleting it, so a reconnect inside the grace period resolves back to
// the same identity.
type Store struct {
	byId   map[string]*domain.Identity
	byConn map[*websocket.Conn]string
	mu     sync.RWMutex

	generator *randstr.Generator
	logger    *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	letterBytes := []byte("abcdefghijklmnopqrstuvwxyz0123456789")

	return &Store{
		byId:      make(map[string]*domain.Identity),
		byConn:    make(map[*websocket.Conn]string),
		generator: randstr.New(letterBytes),
		logger:    logger,
	}
}

// ResolveOrCreate reattaches a known identity to a fresh connection, or
// allocates a new identity when the id is unknown or empty. Permissions
// of a new identity stay zero-valued until a room join seeds them.
func (s *Store) ResolveOrCreate(id string, displayName string, conn *websocket.Conn) *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	if ident, ok := s.byId[id]; ok {
		// one live connection per identity
		if ident.Conn != nil {
			delete(s.byConn, ident.Conn)
			ident.Conn.Close()
		}

		ident.Conn = conn
		ident.DisconnectedAt = nil
		ident.LastSeenAt = now
		if displayName != "" {
			ident.DisplayName = displayName
		}
		s.byConn[conn] = ident.Id

		s.logger.Debug("identity resolved", "identity_id", ident.Id)
		return s.clone(ident)
	}

	if displayName == "" {
		displayName = "guest-" + s.generator.GenerateRandomString(6)
	}

	ident := &domain.Identity{
		Id:          uuid.NewString(),
		DisplayName: displayName,
		Conn:        conn,
		JoinedAt:    now,
		LastSeenAt:  now,
	}
	s.byId[ident.Id] = ident
	s.byConn[conn] = ident.Id

	s.logger.Debug("identity created", "identity_id", ident.Id)
	return s.clone(ident)
}

func (s *Store) ById(id string) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ident, ok := s.byId[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}

	return s.clone(ident), nil
}

func (s *Store) ByConn(conn *websocket.Conn) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byConn[conn]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}

	return s.clone(s.byId[id]), nil
}

// MarkDisconnected detaches the connection and starts the grace period.
// The identity itself is kept until PurgeDisconnectedOlderThan removes it.
func (s *Store) MarkDisconnected(conn *websocket.Conn) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byConn[conn]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}

	ident := s.byId[id]
	now := time.Now()
	ident.Conn = nil
	ident.DisconnectedAt = &now
	ident.LastSeenAt = now
	delete(s.byConn, conn)

	s.logger.Debug("identity disconnected", "identity_id", id)
	return s.clone(ident), nil
}

// PurgeDisconnectedOlderThan removes identities whose grace period has
// run out and returns them so the caller can release room resources.
func (s *Store) PurgeDisconnectedOlderThan(maxAge time.Duration) []*domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)

	var purged []*domain.Identity
	for id, ident := range s.byId {
		if ident.DisconnectedAt != nil && ident.DisconnectedAt.Before(cutoff) {
			purged = append(purged, s.clone(ident))
			delete(s.byId, id)
		}
	}

	if len(purged) > 0 {
		s.logger.Debug("identities purged", "count", len(purged))
	}

	return purged
}

func (s *Store) SetRoom(id string, roomId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.byId[id]
	if !ok {
		return domain.ErrIdentityNotFound
	}

	ident.CurrentRoomId = roomId
	ident.LastSeenAt = time.Now()
	return nil
}

func (s *Store) Rename(id string, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.byId[id]
	if !ok {
		return domain.ErrIdentityNotFound
	}

	ident.DisplayName = displayName
	ident.LastSeenAt = time.Now()
	return nil
}

// SetPermissions merges the partial set into the identity's current
// permissions. It never replaces fields the update leaves nil.
func (s *Store) SetPermissions(id string, update *domain.PermissionUpdate) (domain.PermissionSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.byId[id]
	if !ok {
		return domain.PermissionSet{}, domain.ErrIdentityNotFound
	}

	ident.Permissions = update.Apply(ident.Permissions)
	ident.LastSeenAt = time.Now()
	return ident.Permissions, nil
}

// ReplacePermissions overwrites the identity's whole permission set,
// used when a room join seeds permissions.
func (s *Store) ReplacePermissions(id string, set domain.PermissionSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.byId[id]
	if !ok {
		return domain.ErrIdentityNotFound
	}

	ident.Permissions = set
	ident.LastSeenAt = time.Now()
	return nil
}

// InRoom returns the identities currently attached to the room.
func (s *Store) InRoom(roomId string) []*domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var idents []*domain.Identity
	for _, ident := range s.byId {
		if ident.CurrentRoomId == roomId {
			idents = append(idents, s.clone(ident))
		}
	}

	return idents
}

// ConnectedCount returns the number of identities holding a live
// connection.
func (s *Store) ConnectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.byConn)
}

// Connections returns every live connection in the store.
func (s *Store) Connections() []*websocket.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conns := make([]*websocket.Conn, 0, len(s.byConn))
	for conn := range s.byConn {
		conns = append(conns, conn)
	}

	return conns
}

// clone copies the identity so callers never alias store-owned state.
// Callers must hold at least a read lock.
func (s *Store) clone(ident *domain.Identity) *domain.Identity {
	c := *ident
	if ident.DisconnectedAt != nil {
		t := *ident.DisconnectedAt
		c.DisconnectedAt = &t
	}
	return &c
}
