package permission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syncroom/server/internal/domain"
)

type iIdentityStore interface {
	SetPermissions(id string, update *domain.PermissionUpdate) (domain.PermissionSet, error)
}

type iRoomDirectory interface {
	UpdateDefaultPermissions(ctx context.Context, roomId string, set domain.PermissionSet) error
}

// Model authorizes and validates permission mutations. It holds no
// mutable state of its own: identity permissions live in the identity
// store, room defaults in the room directory, customized sets in the
// overlay.
type Model struct {
	identities iIdentityStore
	roomDir    iRoomDirectory
	overlay    *Overlay
	logger     *slog.Logger
}

func NewModel(identities iIdentityStore, roomDir iRoomDirectory, overlay *Overlay, logger *slog.Logger) *Model {
	return &Model{
		identities: identities,
		roomDir:    roomDir,
		overlay:    overlay,
		logger:     logger,
	}
}

func (m *Model) IsRoomAdmin(room *domain.Room, ident *domain.Identity) bool {
	return room.CreatorId == ident.Id
}

// UpdateRoomDefaults changes the set future joiners are seeded with.
// Only the room admin may call it. Fields absent from the update fall
// back to the room's current default, never to false. Already-joined
// identities keep their sets untouched: the change is not retroactive.
func (m *Model) UpdateRoomDefaults(ctx context.Context, room *domain.Room, requester *domain.Identity, update *domain.PermissionUpdate) (domain.PermissionSet, error) {
	if !m.IsRoomAdmin(room, requester) {
		return domain.PermissionSet{}, domain.ErrPermissionDenied
	}

	newDefaults := update.Apply(room.DefaultPermissions)

	if err := m.roomDir.UpdateDefaultPermissions(ctx, room.Id, newDefaults); err != nil {
		return domain.PermissionSet{}, fmt.Errorf("failed to persist room defaults: %w", err)
	}

	m.logger.DebugContext(ctx, "room defaults updated", "room_id", room.Id)
	return newDefaults, nil
}

// UpdateUserPermissions applies the modifier's requested set to the
// target. A requested field is honored only if the modifier itself
// currently holds that field; otherwise the target's existing value is
// preserved. A participant can never grant or revoke a capability it
// lacks, even transitively.
func (m *Model) UpdateUserPermissions(roomId string, modifier *domain.Identity, targetId string, requested *domain.PermissionUpdate) (domain.PermissionSet, error) {
	if !modifier.Permissions.EditPermissions {
		return domain.PermissionSet{}, domain.ErrPermissionDenied
	}

	granted := restrict(requested, modifier.Permissions)

	set, err := m.identities.SetPermissions(targetId, granted)
	if err != nil {
		return domain.PermissionSet{}, err
	}

	// keep the customized set for rejoins of the same room
	m.overlay.Set(roomId, targetId, set)

	return set, nil
}

// JoinSet resolves the set an identity gets when joining a room: the
// creator always holds the full set, an overlay override comes next,
// room defaults otherwise.
func (m *Model) JoinSet(room *domain.Room, identityId string) domain.PermissionSet {
	if identityId == room.CreatorId {
		return domain.FullPermissions()
	}

	if set, ok := m.overlay.Get(room.Id, identityId); ok {
		return set
	}

	return room.DefaultPermissions
}

// Snapshot is a read accessor kept for symmetry with the mutators.
func (m *Model) Snapshot(ident *domain.Identity) domain.PermissionSet {
	return ident.Permissions
}

// restrict drops every requested field the modifier does not hold.
func restrict(requested *domain.PermissionUpdate, held domain.PermissionSet) *domain.PermissionUpdate {
	granted := *requested
	if !held.EditPermissions {
		granted.EditPermissions = nil
	}
	if !held.SendMessages {
		granted.SendMessages = nil
	}
	if !held.DeleteMessages {
		granted.DeleteMessages = nil
	}
	if !held.ChangeVideo {
		granted.ChangeVideo = nil
	}
	if !held.InteractionVideo {
		granted.InteractionVideo = nil
	}
	return &granted
}
