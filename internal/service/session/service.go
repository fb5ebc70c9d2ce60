package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/identity"
	"github.com/syncroom/server/internal/permission"
	"github.com/syncroom/server/internal/playlist"
	roomrepo "github.com/syncroom/server/internal/repository/room"
)

type iRoomDirectory interface {
	CreateRoom(ctx context.Context, params *roomrepo.CreateRoomParams) (*roomrepo.Record, error)
	GetRoom(ctx context.Context, roomId string) (*roomrepo.Record, error)
	ValidatePassword(ctx context.Context, roomId string, password string) (bool, error)
	UpdateDefaultPermissions(ctx context.Context, roomId string, set domain.PermissionSet) error
	TouchActivity(ctx context.Context, roomId string) error
	DeleteRoom(ctx context.Context, roomId string) error
	DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (roomrepo.DeleteInactiveResult, error)
}

type Config struct {
	Secret            string
	ChatHistoryLimit  int
	DisconnectedGrace time.Duration
	EmptyRoomGrace    time.Duration
	AbsoluteRoomTTL   time.Duration
}

// roomState is the coordinator's live per-room state. Every mutation of
// a room's playlist, member set, chat ring or permission overlay happens
// under its mutex, so no two mutating operations on the same room run
// concurrently. Timers take the same lock before touching shared state.
type roomState struct {
	mu         sync.Mutex
	members    map[string]struct{}
	chat       []domain.ChatMessage
	emptySince *time.Time
}

type service struct {
	identities  *identity.Store
	permissions *permission.Model
	overlay     *permission.Overlay
	engine      *playlist.Engine
	roomDir     iRoomDirectory

	rooms   map[string]*roomState
	roomsMu sync.RWMutex

	cfg    Config
	logger *slog.Logger
}

func NewService(
	identities *identity.Store,
	permissions *permission.Model,
	overlay *permission.Overlay,
	engine *playlist.Engine,
	roomDir iRoomDirectory,
	cfg Config,
	logger *slog.Logger,
) *service {
	if cfg.ChatHistoryLimit <= 0 {
		cfg.ChatHistoryLimit = 100
	}

	return &service{
		identities:  identities,
		permissions: permissions,
		overlay:     overlay,
		engine:      engine,
		roomDir:     roomDir,
		rooms:       make(map[string]*roomState),
		cfg:         cfg,
		logger:      logger,
	}
}

// lockRoom get-or-creates the room's live state and locks it. The
// caller must unlock.
func (s *service) lockRoom(roomId string) *roomState {
	s.roomsMu.RLock()
	rs := s.rooms[roomId]
	s.roomsMu.RUnlock()

	if rs == nil {
		s.roomsMu.Lock()
		rs = s.rooms[roomId]
		if rs == nil {
			rs = &roomState{members: make(map[string]struct{})}
			s.rooms[roomId] = rs
		}
		s.roomsMu.Unlock()
	}

	rs.mu.Lock()
	return rs
}

// dropRoom removes the room's live state from the arena. Cascades to
// the playlist engine and the permission overlay.
func (s *service) dropRoom(roomId string) {
	s.roomsMu.Lock()
	delete(s.rooms, roomId)
	s.roomsMu.Unlock()

	s.engine.Destroy(roomId)
	s.overlay.DeleteRoom(roomId)
}

func (s *service) roomIds() []string {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()

	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}

	return ids
}
