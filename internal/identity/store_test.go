package identity

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncroom/server/internal/domain"
)

func TestResolveOrCreateNewIdentity(t *testing.T) {
	store := NewStore(slog.Default())
	conn := &websocket.Conn{}

	ident := store.ResolveOrCreate("", "", conn)
	require.NotEmpty(t, ident.Id)
	assert.True(t, strings.HasPrefix(ident.DisplayName, "guest-"), "anonymous identity must get a generated name")
	assert.True(t, ident.Connected())
	assert.Equal(t, domain.PermissionSet{}, ident.Permissions, "permissions stay zero until a room join seeds them")

	byConn, err := store.ByConn(conn)
	require.NoError(t, err)
	assert.Equal(t, ident.Id, byConn.Id)
}

func TestResolveOrCreateKeepsDisplayName(t *testing.T) {
	store := NewStore(slog.Default())

	ident := store.ResolveOrCreate("", "alice", &websocket.Conn{})
	assert.Equal(t, "alice", ident.DisplayName)
}

func TestReconnectWithinGraceKeepsIdentity(t *testing.T) {
	store := NewStore(slog.Default())
	conn := &websocket.Conn{}

	ident := store.ResolveOrCreate("", "alice", conn)
	require.NoError(t, store.SetRoom(ident.Id, "room-1"))
	_, err := store.SetPermissions(ident.Id, &domain.PermissionUpdate{ChangeVideo: boolPtr(true)})
	require.NoError(t, err)

	disconnected, err := store.MarkDisconnected(conn)
	require.NoError(t, err)
	assert.False(t, disconnected.Connected())
	assert.NotNil(t, disconnected.DisconnectedAt)

	// the old conn no longer resolves
	_, err = store.ByConn(conn)
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)

	reconnected := store.ResolveOrCreate(ident.Id, "", &websocket.Conn{})
	assert.Equal(t, ident.Id, reconnected.Id, "token reconnect must resolve to the same identity")
	assert.Equal(t, "alice", reconnected.DisplayName)
	assert.Equal(t, "room-1", reconnected.CurrentRoomId, "room membership survives the reconnect")
	assert.True(t, reconnected.Permissions.ChangeVideo, "per-room permissions survive the reconnect")
	assert.True(t, reconnected.Connected())
	assert.Nil(t, reconnected.DisconnectedAt)
}

func TestResolveUnknownIdCreatesFresh(t *testing.T) {
	store := NewStore(slog.Default())

	ident := store.ResolveOrCreate("expired-id", "", &websocket.Conn{})
	assert.NotEqual(t, "expired-id", ident.Id, "an unknown id must not be resurrected")
}

func TestPurgeDisconnectedOlderThan(t *testing.T) {
	store := NewStore(slog.Default())
	conn := &websocket.Conn{}

	ident := store.ResolveOrCreate("", "", conn)
	_, err := store.MarkDisconnected(conn)
	require.NoError(t, err)

	purged := store.PurgeDisconnectedOlderThan(time.Hour)
	assert.Empty(t, purged, "identity inside the grace period must survive")

	purged = store.PurgeDisconnectedOlderThan(0)
	require.Len(t, purged, 1)
	assert.Equal(t, ident.Id, purged[0].Id)

	_, err = store.ById(ident.Id)
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
}

func TestPurgeSkipsConnected(t *testing.T) {
	store := NewStore(slog.Default())
	store.ResolveOrCreate("", "", &websocket.Conn{})

	purged := store.PurgeDisconnectedOlderThan(0)
	assert.Empty(t, purged, "a connected identity is never purged")
}

func TestInRoomAndConnectedCount(t *testing.T) {
	store := NewStore(slog.Default())

	a := store.ResolveOrCreate("", "a", &websocket.Conn{})
	b := store.ResolveOrCreate("", "b", &websocket.Conn{})
	store.ResolveOrCreate("", "c", &websocket.Conn{})

	require.NoError(t, store.SetRoom(a.Id, "room-1"))
	require.NoError(t, store.SetRoom(b.Id, "room-1"))

	assert.Len(t, store.InRoom("room-1"), 2)
	assert.Equal(t, 3, store.ConnectedCount())
	assert.Len(t, store.Connections(), 3)
}

func TestClonePreventsAliasing(t *testing.T) {
	store := NewStore(slog.Default())

	ident := store.ResolveOrCreate("", "alice", &websocket.Conn{})
	ident.DisplayName = "mutated"

	fresh, err := store.ById(ident.Id)
	require.NoError(t, err)
	assert.Equal(t, "alice", fresh.DisplayName, "callers must not be able to mutate store state")
}

func boolPtr(b bool) *bool {
	return &b
}
