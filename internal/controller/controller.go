package controller

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/service/session"
	"github.com/syncroom/server/pkg/validator"
	"github.com/syncroom/server/pkg/wsrouter"
)

type iSessionService interface {
	Connect(ctx context.Context, params *session.ConnectParams) (session.ConnectResponse, error)
	Disconnect(ctx context.Context, conn *websocket.Conn) (session.DisconnectResponse, error)
	IdentityIdFromToken(token string) (string, error)
	CurrentRoomId(identityId string) (string, error)

	CreateRoom(ctx context.Context, params *session.CreateRoomParams) (*domain.Room, error)
	GetRoomInfo(ctx context.Context, roomId string) (*domain.Room, error)
	ValidateRoomPassword(ctx context.Context, roomId string, password string) (bool, error)
	DeleteRoom(ctx context.Context, roomId string, requesterId string) error

	JoinRoom(ctx context.Context, params *session.JoinRoomParams) (session.JoinRoomResponse, error)
	LeaveRoom(ctx context.Context, params *session.LeaveRoomParams) (session.LeaveRoomResponse, error)
	ChangeUsername(ctx context.Context, params *session.ChangeUsernameParams) (session.ChangeUsernameResponse, error)

	SendChatMessage(ctx context.Context, params *session.ChatMessageParams) (session.ChatMessageResponse, error)
	DeleteChatMessage(ctx context.Context, params *session.DeleteChatMessageParams) (session.DeleteChatMessageResponse, error)

	AddVideo(ctx context.Context, params *session.AddVideoParams) (session.AddVideoResponse, error)
	RemoveVideo(ctx context.Context, params *session.RemoveVideoParams) (session.PlaylistResponse, error)
	ReorderPlaylist(ctx context.Context, params *session.ReorderPlaylistParams) (session.PlaylistResponse, error)
	PlayVideo(ctx context.Context, params *session.PlayVideoParams) (session.PlayVideoResponse, error)
	VideoEnded(ctx context.Context, params *session.VideoEndedParams) (session.VideoEndedResponse, error)
	ToggleLoop(ctx context.Context, params *session.ToggleLoopParams) (session.PlaylistResponse, error)

	RelaySync(ctx context.Context, params *session.SyncActionParams) (session.SyncRelayResponse, error)
	RequestSync(ctx context.Context, params *session.RequestSyncParams) (session.SyncSnapshot, error)

	GetRoomPermissions(ctx context.Context, params *session.GetRoomPermissionsParams) (domain.PermissionSet, error)
	UpdateRoomPermissions(ctx context.Context, params *session.UpdateRoomPermissionsParams) (session.RoomPermissionsResponse, error)
	GetUserPermissions(ctx context.Context, params *session.GetUserPermissionsParams) (domain.PermissionSet, error)
	UpdateUserPermissions(ctx context.Context, params *session.UpdateUserPermissionsParams) (session.UserPermissionsResponse, error)
}

type controller struct {
	sessionService iSessionService
	upgrader       websocket.Upgrader
	validate       *validator.Validator
	wsmux          *wsrouter.WSRouter
	logger         *slog.Logger
}

func NewController(sessionService iSessionService, logger *slog.Logger) *controller {
	c := &controller{
		sessionService: sessionService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}

func (c controller) generateTimeBasedId() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}
