package room

import (
	"time"

	"github.com/syncroom/server/internal/domain"
)

type CreateRoomParams struct {
	CreatorId string
	Password  string
}

// Record is the stored shape of a room, including fields the domain
// view hides (password hash, activity timestamp).
type Record struct {
	Id                 string
	CreatorId          string
	RequiresPassword   bool
	PasswordHash       string
	DefaultPermissions domain.PermissionSet
	CreatedAt          time.Time
	LastActiveAt       time.Time
}

func (r *Record) ToDomain() *domain.Room {
	return &domain.Room{
		Id:                 r.Id,
		CreatorId:          r.CreatorId,
		RequiresPassword:   r.RequiresPassword,
		DefaultPermissions: r.DefaultPermissions,
		CreatedAt:          r.CreatedAt,
	}
}

// DeleteInactiveResult reports which rooms a reap pass removed.
type DeleteInactiveResult struct {
	Count int
	Ids   []string
}
