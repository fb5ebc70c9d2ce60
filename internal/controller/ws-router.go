package controller

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/metrics"
	"github.com/syncroom/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsMetricsMw)
	mux.Use(c.wsLoggingMw)
	mux.OnError(c.writeWSError)

	// room
	mux.Handle("join-room", c.handleJoinRoom)
	mux.Handle("leave-room", c.handleLeaveRoom)
	mux.Handle("change-username", c.handleChangeUsername)

	// permissions
	mux.Handle("get-room-permissions", c.handleGetRoomPermissions)
	mux.Handle("update-room-permissions", c.handleUpdateRoomPermissions)
	mux.Handle("get-user-permissions", c.handleGetUserPermissions)
	mux.Handle("update-user-permissions", c.handleUpdateUserPermissions)

	// playlist
	mux.Handle("add-to-playlist", c.handleAddVideo)
	mux.Handle("remove-from-playlist", c.handleRemoveVideo)
	mux.Handle("reorder-playlist", c.handleReorderPlaylist)
	mux.Handle("play-video", c.handlePlayVideo)
	mux.Handle("video-ended", c.handleVideoEnded)
	mux.Handle("toggle-playlist-loop", c.handleToggleLoop)

	// playback sync. Relaying a play/pause/seek is gated on
	// interactionVideo; choosing WHAT plays (play-video above) is the
	// changeVideo-gated operation.
	mux.Handle("video-play", c.handleSyncAction(domain.SyncActionPlay))
	mux.Handle("video-pause", c.handleSyncAction(domain.SyncActionPause))
	mux.Handle("video-seek", c.handleSyncAction(domain.SyncActionSeek))
	mux.Handle("request-sync", c.handleRequestSync)

	// chat
	mux.Handle("chat-message", c.handleChatMessage)
	mux.Handle("delete-chat-message", c.handleDeleteChatMessage)

	return mux
}

func (c controller) wsLoggingMw(next wsrouter.HandlerFunc) wsrouter.HandlerFunc {
	return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		c.logger.DebugContext(ctx, "ws message",
			"type", wsrouter.GetMessageTypeFromCtx(ctx),
			"identity_id", c.getIdentityIdFromCtx(ctx),
		)

		return next(ctx, conn, payload)
	}
}

func (c controller) wsMetricsMw(next wsrouter.HandlerFunc) wsrouter.HandlerFunc {
	return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		messageType := wsrouter.GetMessageTypeFromCtx(ctx)
		metrics.WsMessagesTotal.WithLabelValues(messageType).Inc()

		start := time.Now()
		err := next(ctx, conn, payload)
		metrics.WsHandlerDuration.WithLabelValues(messageType).Observe(time.Since(start).Seconds())

		return err
	}
}
