package permission

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncroom/server/internal/domain"
)

type fakeIdentityStore struct {
	sets map[string]domain.PermissionSet
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{sets: make(map[string]domain.PermissionSet)}
}

func (f *fakeIdentityStore) SetPermissions(id string, update *domain.PermissionUpdate) (domain.PermissionSet, error) {
	set := update.Apply(f.sets[id])
	f.sets[id] = set
	return set, nil
}

type fakeRoomDirectory struct {
	defaults map[string]domain.PermissionSet
}

func newFakeRoomDirectory() *fakeRoomDirectory {
	return &fakeRoomDirectory{defaults: make(map[string]domain.PermissionSet)}
}

func (f *fakeRoomDirectory) UpdateDefaultPermissions(ctx context.Context, roomId string, set domain.PermissionSet) error {
	f.defaults[roomId] = set
	return nil
}

func boolPtr(b bool) *bool {
	return &b
}

func testRoom() *domain.Room {
	return &domain.Room{
		Id:                 "room-1",
		CreatorId:          "creator",
		DefaultPermissions: domain.DefaultPermissions(),
	}
}

func TestUpdateRoomDefaultsAdminOnly(t *testing.T) {
	roomDir := newFakeRoomDirectory()
	model := NewModel(newFakeIdentityStore(), roomDir, NewOverlay(), slog.Default())
	room := testRoom()

	_, err := model.UpdateRoomDefaults(context.Background(), room, &domain.Identity{Id: "not-creator"}, &domain.PermissionUpdate{
		SendMessages: boolPtr(false),
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	assert.Empty(t, roomDir.defaults, "a rejected update must not be persisted")
}

func TestUpdateRoomDefaultsMergesAgainstCurrent(t *testing.T) {
	roomDir := newFakeRoomDirectory()
	model := NewModel(newFakeIdentityStore(), roomDir, NewOverlay(), slog.Default())
	room := testRoom()

	set, err := model.UpdateRoomDefaults(context.Background(), room, &domain.Identity{Id: "creator"}, &domain.PermissionUpdate{
		SendMessages: boolPtr(false),
	})
	require.NoError(t, err)

	assert.False(t, set.SendMessages)
	assert.True(t, set.ChangeVideo, "omitted fields keep the current default")
	assert.True(t, set.InteractionVideo)
	assert.Equal(t, set, roomDir.defaults[room.Id])
}

func TestUpdateUserPermissionsRequiresEditPermissions(t *testing.T) {
	model := NewModel(newFakeIdentityStore(), newFakeRoomDirectory(), NewOverlay(), slog.Default())

	modifier := &domain.Identity{Id: "mod", Permissions: domain.DefaultPermissions()}
	_, err := model.UpdateUserPermissions("room-1", modifier, "target", &domain.PermissionUpdate{
		ChangeVideo: boolPtr(false),
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestUpdateUserPermissionsCannotGrantUnheld(t *testing.T) {
	identities := newFakeIdentityStore()
	identities.sets["target"] = domain.PermissionSet{SendMessages: true}
	model := NewModel(identities, newFakeRoomDirectory(), NewOverlay(), slog.Default())

	// modifier can edit permissions but does not hold changeVideo
	modifier := &domain.Identity{Id: "mod", Permissions: domain.PermissionSet{
		EditPermissions: true,
		SendMessages:    true,
	}}

	set, err := model.UpdateUserPermissions("room-1", modifier, "target", &domain.PermissionUpdate{
		ChangeVideo:  boolPtr(true),
		SendMessages: boolPtr(false),
	})
	require.NoError(t, err)

	assert.False(t, set.ChangeVideo, "a capability the modifier lacks must not be granted")
	assert.False(t, set.SendMessages, "held capabilities are applied as requested")
}

func TestUpdateUserPermissionsFillsOverlay(t *testing.T) {
	overlay := NewOverlay()
	model := NewModel(newFakeIdentityStore(), newFakeRoomDirectory(), overlay, slog.Default())

	modifier := &domain.Identity{Id: "mod", Permissions: domain.PermissionSet{
		EditPermissions: true,
		ChangeVideo:     true,
	}}

	set, err := model.UpdateUserPermissions("room-1", modifier, "target", &domain.PermissionUpdate{
		ChangeVideo: boolPtr(true),
	})
	require.NoError(t, err)

	stored, ok := overlay.Get("room-1", "target")
	require.True(t, ok, "customized set must land in the overlay")
	assert.Equal(t, set, stored)
}

func TestJoinSetCreatorGetsFullSet(t *testing.T) {
	model := NewModel(newFakeIdentityStore(), newFakeRoomDirectory(), NewOverlay(), slog.Default())

	assert.Equal(t, domain.FullPermissions(), model.JoinSet(testRoom(), "creator"))
}

func TestJoinSetPrefersOverlay(t *testing.T) {
	overlay := NewOverlay()
	model := NewModel(newFakeIdentityStore(), newFakeRoomDirectory(), overlay, slog.Default())
	room := testRoom()

	assert.Equal(t, room.DefaultPermissions, model.JoinSet(room, "someone"), "without an overlay entry the defaults apply")

	custom := domain.PermissionSet{SendMessages: true, DeleteMessages: true}
	overlay.Set(room.Id, "someone", custom)

	assert.Equal(t, custom, model.JoinSet(room, "someone"), "the overlay entry wins on rejoin")
}

func TestOverlayDeleteRoom(t *testing.T) {
	overlay := NewOverlay()
	overlay.Set("room-1", "a", domain.PermissionSet{SendMessages: true})
	overlay.Set("room-2", "a", domain.PermissionSet{SendMessages: true})

	overlay.DeleteRoom("room-1")

	_, ok := overlay.Get("room-1", "a")
	assert.False(t, ok)
	_, ok = overlay.Get("room-2", "a")
	assert.True(t, ok, "other rooms must be untouched")
}
