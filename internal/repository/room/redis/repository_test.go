package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/repository/room"
)

func newTestRepo(t *testing.T) *repo {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})

	return NewRepo(rc, slog.Default())
}

func TestCreateAndGetRoom(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	record, err := r.CreateRoom(ctx, &room.CreateRoomParams{CreatorId: "creator"})
	require.NoError(t, err)
	require.NotEmpty(t, record.Id)
	assert.False(t, record.RequiresPassword)
	assert.Equal(t, domain.DefaultPermissions(), record.DefaultPermissions)

	got, err := r.GetRoom(ctx, record.Id)
	require.NoError(t, err)
	assert.Equal(t, record.Id, got.Id)
	assert.Equal(t, "creator", got.CreatorId)
	assert.Equal(t, record.DefaultPermissions, got.DefaultPermissions)
	assert.Equal(t, record.CreatedAt.Unix(), got.CreatedAt.Unix())
}

func TestGetRoomNotFound(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.GetRoom(context.Background(), "missing")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestValidatePassword(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	record, err := r.CreateRoom(ctx, &room.CreateRoomParams{CreatorId: "creator", Password: "hunter2"})
	require.NoError(t, err)
	assert.True(t, record.RequiresPassword)
	assert.NotEqual(t, "hunter2", record.PasswordHash, "password must be stored hashed")

	ok, err := r.ValidatePassword(ctx, record.Id, "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.ValidatePassword(ctx, record.Id, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidatePasswordOpenRoom(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	record, err := r.CreateRoom(ctx, &room.CreateRoomParams{CreatorId: "creator"})
	require.NoError(t, err)

	ok, err := r.ValidatePassword(ctx, record.Id, "anything")
	require.NoError(t, err)
	assert.True(t, ok, "a room without a password accepts any password")
}

func TestUpdateDefaultPermissions(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	record, err := r.CreateRoom(ctx, &room.CreateRoomParams{CreatorId: "creator"})
	require.NoError(t, err)

	updated := domain.PermissionSet{SendMessages: true, DeleteMessages: true}
	require.NoError(t, r.UpdateDefaultPermissions(ctx, record.Id, updated))

	got, err := r.GetRoom(ctx, record.Id)
	require.NoError(t, err)
	assert.Equal(t, updated, got.DefaultPermissions)

	err = r.UpdateDefaultPermissions(ctx, "missing", updated)
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestDeleteRoom(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	record, err := r.CreateRoom(ctx, &room.CreateRoomParams{CreatorId: "creator"})
	require.NoError(t, err)

	require.NoError(t, r.DeleteRoom(ctx, record.Id))

	_, err = r.GetRoom(ctx, record.Id)
	assert.ErrorIs(t, err, room.ErrRoomNotFound)

	err = r.DeleteRoom(ctx, record.Id)
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestDeleteInactiveOlderThan(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	stale, err := r.CreateRoom(ctx, &room.CreateRoomParams{CreatorId: "creator"})
	require.NoError(t, err)
	fresh, err := r.CreateRoom(ctx, &room.CreateRoomParams{CreatorId: "creator"})
	require.NoError(t, err)

	// nothing is older than a cutoff in the past
	result, err := r.DeleteInactiveOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, result.Count)

	// age the stale room by moving the fresh one's activity forward
	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, r.TouchActivity(ctx, fresh.Id))

	result, err = r.DeleteInactiveOlderThan(ctx, time.Now().Add(-time.Second))
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, []string{stale.Id}, result.Ids)

	_, err = r.GetRoom(ctx, stale.Id)
	assert.ErrorIs(t, err, room.ErrRoomNotFound)

	_, err = r.GetRoom(ctx, fresh.Id)
	require.NoError(t, err)
}
