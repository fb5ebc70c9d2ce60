package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncroom/server/internal/controller"
	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/identity"
	"github.com/syncroom/server/internal/permission"
	"github.com/syncroom/server/internal/playlist"
	roomredis "github.com/syncroom/server/internal/repository/room/redis"
	"github.com/syncroom/server/internal/service/session"
)

type wsEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})

	logger := slog.Default()
	roomDir := roomredis.NewRepo(rc, logger)
	identities := identity.NewStore(logger)
	overlay := permission.NewOverlay()
	model := permission.NewModel(identities, roomDir, overlay, logger)
	engine := playlist.NewEngine(50)

	sessionService := session.NewService(identities, model, overlay, engine, roomDir, session.Config{
		Secret:            "test-secret",
		ChatHistoryLimit:  100,
		DisconnectedGrace: time.Hour,
		EmptyRoomGrace:    time.Hour,
		AbsoluteRoomTTL:   14 * 24 * time.Hour,
	}, logger)

	ts := httptest.NewServer(controller.NewController(sessionService, logger).GetMux())
	t.Cleanup(ts.Close)

	return ts
}

func dialWS(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	if query != "" {
		url += "?" + query
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

// waitFor reads events off the connection until one of the wanted type
// arrives, skipping interleaved broadcasts.
func waitFor(t *testing.T, conn *websocket.Conn, eventType string) json.RawMessage {
	t.Helper()

	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

		var event wsEvent
		require.NoError(t, conn.ReadJSON(&event), "waiting for %q", eventType)
		if event.Type == eventType {
			return event.Payload
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(map[string]any{"type": eventType, "payload": payload}))
}

type registeredPayload struct {
	Identity struct {
		Id          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"identity"`
	AuthToken string `json:"auth_token"`
}

func register(t *testing.T, conn *websocket.Conn) registeredPayload {
	t.Helper()

	var reg registeredPayload
	require.NoError(t, json.Unmarshal(waitFor(t, conn, "user-registered"), &reg))
	require.NotEmpty(t, reg.Identity.Id)
	require.NotEmpty(t, reg.AuthToken)

	return reg
}

func createRoomREST(t *testing.T, ts *httptest.Server, token string, body string) *domain.Room {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/room", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("X-Identity-Token", token)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var room domain.Room
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&room))
	require.NotEmpty(t, room.Id)

	return &room
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateRoomRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Post(ts.URL+"/api/v1/room", "application/json", bytes.NewBufferString("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoomSession(t *testing.T) {
	ts := newTestServer(t)

	// creator connects and opens a room over REST
	creatorConn := dialWS(t, ts, "display-name=creator")
	creator := register(t, creatorConn)
	assert.Equal(t, "creator", creator.Identity.DisplayName)

	room := createRoomREST(t, ts, creator.AuthToken, "{}")

	send(t, creatorConn, "join-room", map[string]any{"room_id": room.Id})

	var joined struct {
		Room     domain.Room          `json:"room"`
		Members  []json.RawMessage    `json:"members"`
		Playlist domain.PlaylistState `json:"playlist"`
	}
	require.NoError(t, json.Unmarshal(waitFor(t, creatorConn, "room-joined"), &joined))
	assert.Equal(t, room.Id, joined.Room.Id)
	assert.Len(t, joined.Members, 1)
	assert.Empty(t, joined.Playlist.Items)

	// guest joins; creator is notified
	guestConn := dialWS(t, ts, "")
	guest := register(t, guestConn)
	assert.True(t, strings.HasPrefix(guest.Identity.DisplayName, "guest-"))

	send(t, guestConn, "join-room", map[string]any{"room_id": room.Id})
	waitFor(t, guestConn, "room-joined")

	var userJoined struct {
		JoinedMember struct {
			Id string `json:"id"`
		} `json:"joined_member"`
	}
	require.NoError(t, json.Unmarshal(waitFor(t, creatorConn, "user-joined"), &userJoined))
	assert.Equal(t, guest.Identity.Id, userJoined.JoinedMember.Id)

	// guest queues the first video; everyone gets the update and the
	// autostart
	send(t, guestConn, "add-to-playlist", map[string]any{
		"url":   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"title": "first video",
	})

	var updated struct {
		AddedVideo domain.PlaylistItem  `json:"added_video"`
		Playlist   domain.PlaylistState `json:"playlist"`
	}
	require.NoError(t, json.Unmarshal(waitFor(t, creatorConn, "playlist-updated"), &updated))
	assert.Equal(t, "first video", updated.AddedVideo.Title)
	assert.Equal(t, guest.Identity.Id, updated.AddedVideo.AddedBy.IdentityId)
	assert.True(t, updated.Playlist.IsPlaying)

	waitFor(t, creatorConn, "video-changed")
	waitFor(t, guestConn, "video-changed")

	// guest seeks; only the creator gets the relay
	send(t, guestConn, "video-seek", map[string]any{"time": 42.5})

	var relayed struct {
		Event domain.SyncEvent `json:"event"`
	}
	require.NoError(t, json.Unmarshal(waitFor(t, creatorConn, "video-seek-sync"), &relayed))
	assert.Equal(t, "seek", relayed.Event.Action)
	assert.Equal(t, 42.5, relayed.Event.Time)

	// chat reaches both sides
	send(t, guestConn, "chat-message", map[string]any{"text": "hello"})

	var chat struct {
		Message domain.ChatMessage `json:"message"`
	}
	require.NoError(t, json.Unmarshal(waitFor(t, creatorConn, "chat-message"), &chat))
	assert.Equal(t, "hello", chat.Message.Text)
	assert.Equal(t, guest.Identity.Id, chat.Message.IdentityId)
	waitFor(t, guestConn, "chat-message")

	// guests cannot delete messages
	send(t, guestConn, "delete-chat-message", map[string]any{"message_id": chat.Message.Id})

	var wsErr domain.Error
	require.NoError(t, json.Unmarshal(waitFor(t, guestConn, "permissions-error"), &wsErr))
	assert.Equal(t, domain.KindPermissionDenied, wsErr.Kind)

	// playlist failures land on playlist-error
	send(t, guestConn, "add-to-playlist", map[string]any{"url": "not-a-video", "title": "x"})
	require.NoError(t, json.Unmarshal(waitFor(t, guestConn, "playlist-error"), &wsErr))
	assert.Equal(t, domain.KindValidation, wsErr.Kind)

	// creator drops; guest sees the departure
	creatorConn.Close()

	var left struct {
		LeftId string `json:"left_id"`
	}
	require.NoError(t, json.Unmarshal(waitFor(t, guestConn, "user-left"), &left))
	assert.Equal(t, creator.Identity.Id, left.LeftId)
}

func TestReconnectKeepsIdentity(t *testing.T) {
	ts := newTestServer(t)

	conn := dialWS(t, ts, "display-name=alice")
	first := register(t, conn)
	conn.Close()

	reconn := dialWS(t, ts, "auth-token="+first.AuthToken)
	second := register(t, reconn)

	assert.Equal(t, first.Identity.Id, second.Identity.Id, "reconnect with a valid token must resolve the same identity")
	assert.Equal(t, "alice", second.Identity.DisplayName)
}

func TestRoomRESTLifecycle(t *testing.T) {
	ts := newTestServer(t)

	conn := dialWS(t, ts, "display-name=creator")
	creator := register(t, conn)

	room := createRoomREST(t, ts, creator.AuthToken, `{"password":"hunter2"}`)
	assert.True(t, room.RequiresPassword)

	// room info is public
	resp, err := ts.Client().Get(ts.URL + "/api/v1/room/" + room.Id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got domain.Room
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, room.Id, got.Id)

	// password pre-validation
	resp, err = ts.Client().Post(ts.URL+"/api/v1/room/"+room.Id+"/validate-password", "application/json",
		bytes.NewBufferString(`{"password":"hunter2"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var validation map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&validation))
	assert.True(t, validation["valid"])

	// deletion is creator-only
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/room/"+room.Id, nil)
	require.NoError(t, err)
	req.Header.Set("X-Identity-Token", creator.AuthToken)

	resp, err = ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = ts.Client().Get(ts.URL + "/api/v1/room/" + room.Id)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
