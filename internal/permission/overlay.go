package permission

import (
	"sync"

	"github.com/syncroom/server/internal/domain"
)

// Overlay keeps per-room customized permission sets keyed by identity,
// so a participant whose permissions were changed gets them back when
// rejoining the same room. Cleared when the room is deleted.
type Overlay struct {
	rooms map[string]map[string]domain.PermissionSet
	mu    sync.RWMutex
}

func NewOverlay() *Overlay {
	return &Overlay{rooms: make(map[string]map[string]domain.PermissionSet)}
}

func (o *Overlay) Get(roomId, identityId string) (domain.PermissionSet, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	set, ok := o.rooms[roomId][identityId]
	return set, ok
}

func (o *Overlay) Set(roomId, identityId string, set domain.PermissionSet) {
	o.mu.Lock()
	defer o.mu.Unlock()

	room, ok := o.rooms[roomId]
	if !ok {
		room = make(map[string]domain.PermissionSet)
		o.rooms[roomId] = room
	}
	room[identityId] = set
}

func (o *Overlay) DeleteRoom(roomId string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.rooms, roomId)
}
