package session

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/syncroom/server/internal/domain"
)

// IdentityView is the client-facing shape of an identity.
type IdentityView struct {
	Id          string               `json:"id"`
	DisplayName string               `json:"display_name"`
	IsOnline    bool                 `json:"is_online"`
	Permissions domain.PermissionSet `json:"permissions"`
}

func identityView(ident *domain.Identity) IdentityView {
	return IdentityView{
		Id:          ident.Id,
		DisplayName: ident.DisplayName,
		IsOnline:    ident.Connected(),
		Permissions: ident.Permissions,
	}
}

// SyncSnapshot is the best-effort answer to request-sync: the playlist
// engine's view only, with the position estimated from the current
// item's start time. The coordinator never polls other clients.
type SyncSnapshot struct {
	HasVideo    bool                 `json:"has_video"`
	IsPlaying   bool                 `json:"is_playing"`
	CurrentTime float64              `json:"current_time"`
	Item        *domain.PlaylistItem `json:"item,omitempty"`
}

func syncSnapshot(state *domain.PlaylistState) SyncSnapshot {
	snapshot := SyncSnapshot{}
	if len(state.Items) == 0 {
		return snapshot
	}

	item := state.Items[state.CurrentIndex]
	snapshot.HasVideo = true
	snapshot.IsPlaying = state.IsPlaying
	snapshot.Item = &item
	if state.IsPlaying && state.CurrentItemStartTime != nil {
		snapshot.CurrentTime = time.Since(*state.CurrentItemStartTime).Seconds()
	}

	return snapshot
}

type ConnectResponse struct {
	Identity   IdentityView
	Token      string
	UsersCount int
	Conns      []*websocket.Conn
}

type DisconnectResponse struct {
	Identity   *IdentityView
	RoomId     string
	Members    []IdentityView
	UsersCount int
	RoomConns  []*websocket.Conn
	AllConns   []*websocket.Conn
}

type JoinRoomResponse struct {
	Joined   IdentityView
	Members  []IdentityView
	Playlist domain.PlaylistState
	Chat     []domain.ChatMessage
	Room     *domain.Room
	Conns    []*websocket.Conn
}

type LeaveRoomResponse struct {
	LeftId  string
	Members []IdentityView
	Conns   []*websocket.Conn
}

type ChangeUsernameResponse struct {
	Identity IdentityView
	Conns    []*websocket.Conn
}

type ChatMessageResponse struct {
	Message domain.ChatMessage
	Conns   []*websocket.Conn
}

type DeleteChatMessageResponse struct {
	MessageId string
	Conns     []*websocket.Conn
}

type PlaylistResponse struct {
	Playlist domain.PlaylistState
	Conns    []*websocket.Conn
}

type AddVideoResponse struct {
	AddedVideo domain.PlaylistItem
	Playlist   domain.PlaylistState
	Conns      []*websocket.Conn
}

type PlayVideoResponse struct {
	Playlist domain.PlaylistState
	Current  domain.PlaylistItem
	Conns    []*websocket.Conn
}

type VideoEndedResponse struct {
	EndOfQueue bool
	Playlist   domain.PlaylistState
	Current    *domain.PlaylistItem
	Conns      []*websocket.Conn
}

type SyncRelayResponse struct {
	Event domain.SyncEvent
	Conns []*websocket.Conn
}

type RoomPermissionsResponse struct {
	Defaults domain.PermissionSet
	Conns    []*websocket.Conn
}

type UserPermissionsResponse struct {
	IdentityId  string
	Permissions domain.PermissionSet
	TargetConn  *websocket.Conn
	Conns       []*websocket.Conn
}
