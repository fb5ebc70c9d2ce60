package controller

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/pkg/wsrouter"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c controller) writeToConn(ctx context.Context, conn *websocket.Conn, output *Output) error {
	if conn == nil {
		return nil
	}

	return conn.WriteJSON(output)
}

// broadcast fans the output out to every connection. A dead connection
// is logged and skipped: in-flight broadcasts complete for still-
// connected members regardless of who dropped mid-flight.
func (c controller) broadcast(ctx context.Context, conns []*websocket.Conn, output *Output) {
	for _, conn := range conns {
		if err := c.writeToConn(ctx, conn, output); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn", "error", err)
		}
	}
}

// playlistScoped message types route their failures to playlist-error.
var playlistScoped = map[string]bool{
	"add-to-playlist":      true,
	"remove-from-playlist": true,
	"reorder-playlist":     true,
	"play-video":           true,
	"video-ended":          true,
	"toggle-playlist-loop": true,
	"video-play":           true,
	"video-pause":          true,
	"video-seek":           true,
}

// writeWSError converts a handler error into the protocol's error
// event. Every payload carries the closed error kind plus the human-
// readable message. Errors outside the closed kind set are logged and
// masked: their text never reaches the client.
func (c controller) writeWSError(ctx context.Context, conn *websocket.Conn, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		c.logger.ErrorContext(ctx, "unhandled handler error", "error", err)
		domainErr = domain.NewError(domain.KindValidation, "internal error")
	}

	eventType := "error"
	messageType := wsrouter.GetMessageTypeFromCtx(ctx)
	switch {
	case domainErr.Kind == domain.KindPermissionDenied:
		eventType = "permissions-error"
	case playlistScoped[messageType]:
		eventType = "playlist-error"
	}

	if err := c.writeToConn(ctx, conn, &Output{Type: eventType, Payload: domainErr}); err != nil {
		c.logger.DebugContext(ctx, "failed to write error", "error", err)
	}
}
