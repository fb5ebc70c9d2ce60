package controller

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/syncroom/server/internal/service/session"
)

type AddVideoInput struct {
	Url       string  `json:"url"`
	Title     string  `json:"title"`
	Thumbnail *string `json:"thumbnail"`
}

func (c controller) handleAddVideo(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input AddVideoInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	identityId, roomId, err := c.roomScope(ctx)
	if err != nil {
		return err
	}

	resp, err := c.sessionService.AddVideo(ctx, &session.AddVideoParams{
		IdentityId: identityId,
		RoomId:     roomId,
		Url:        input.Url,
		Title:      input.Title,
		Thumbnail:  input.Thumbnail,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "playlist-updated",
		Payload: map[string]any{
			"added_video": resp.AddedVideo,
			"playlist":    resp.Playlist,
		},
	})

	// adding to an empty queue starts playback immediately
	if resp.Playlist.IsPlaying && len(resp.Playlist.Items) == 1 {
		c.broadcast(ctx, resp.Conns, &Output{
			Type: "video-changed",
			Payload: map[string]any{
				"item":     resp.AddedVideo,
				"playlist": resp.Playlist,
			},
		})
	}

	return nil
}

type RemoveVideoInput struct {
	ItemId string `json:"item_id"`
}

func (c controller) handleRemoveVideo(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input RemoveVideoInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	identityId, roomId, err := c.roomScope(ctx)
	if err != nil {
		return err
	}

	resp, err := c.sessionService.RemoveVideo(ctx, &session.RemoveVideoParams{
		IdentityId: identityId,
		RoomId:     roomId,
		ItemId:     input.ItemId,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "playlist-updated",
		Payload: map[string]any{"playlist": resp.Playlist},
	})

	return nil
}

type ReorderPlaylistInput struct {
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
}

func (c controller) handleReorderPlaylist(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input ReorderPlaylistInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	identityId, roomId, err := c.roomScope(ctx)
	if err != nil {
		return err
	}

	resp, err := c.sessionService.ReorderPlaylist(ctx, &session.ReorderPlaylistParams{
		IdentityId: identityId,
		RoomId:     roomId,
		FromIndex:  input.FromIndex,
		ToIndex:    input.ToIndex,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "playlist-updated",
		Payload: map[string]any{"playlist": resp.Playlist},
	})

	return nil
}

type PlayVideoInput struct {
	Index int `json:"index"`
}

func (c controller) handlePlayVideo(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input PlayVideoInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	identityId, roomId, err := c.roomScope(ctx)
	if err != nil {
		return err
	}

	resp, err := c.sessionService.PlayVideo(ctx, &session.PlayVideoParams{
		IdentityId: identityId,
		RoomId:     roomId,
		Index:      input.Index,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "video-changed",
		Payload: map[string]any{
			"item":     resp.Current,
			"playlist": resp.Playlist,
		},
	})

	return nil
}

func (c controller) handleVideoEnded(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	identityId, roomId, err := c.roomScope(ctx)
	if err != nil {
		return err
	}

	resp, err := c.sessionService.VideoEnded(ctx, &session.VideoEndedParams{
		IdentityId: identityId,
		RoomId:     roomId,
	})
	if err != nil {
		return err
	}

	if resp.EndOfQueue {
		c.broadcast(ctx, resp.Conns, &Output{
			Type:    "playlist-state",
			Payload: map[string]any{"playlist": resp.Playlist},
		})

		return nil
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "video-changed",
		Payload: map[string]any{
			"item":     resp.Current,
			"playlist": resp.Playlist,
		},
	})

	return nil
}

type ToggleLoopInput struct {
	IsLooping bool `json:"is_looping"`
}

func (c controller) handleToggleLoop(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input ToggleLoopInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	identityId, roomId, err := c.roomScope(ctx)
	if err != nil {
		return err
	}

	resp, err := c.sessionService.ToggleLoop(ctx, &session.ToggleLoopParams{
		IdentityId: identityId,
		RoomId:     roomId,
		IsLooping:  input.IsLooping,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "playlist-state",
		Payload: map[string]any{"playlist": resp.Playlist},
	})

	return nil
}

type SyncActionInput struct {
	Time float64 `json:"time"`
}

// handleSyncAction relays a play, pause or seek action to the rest of
// the room. The sender's own connection is excluded by the service.
func (c controller) handleSyncAction(action string) func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		var input SyncActionInput
		if err := c.unmarshalPayload(payload, &input); err != nil {
			return err
		}

		identityId, roomId, err := c.roomScope(ctx)
		if err != nil {
			return err
		}

		resp, err := c.sessionService.RelaySync(ctx, &session.SyncActionParams{
			IdentityId: identityId,
			RoomId:     roomId,
			Action:     action,
			Time:       input.Time,
		})
		if err != nil {
			return err
		}

		c.broadcast(ctx, resp.Conns, &Output{
			Type:    "video-" + action + "-sync",
			Payload: map[string]any{"event": resp.Event},
		})

		return nil
	}
}

func (c controller) handleRequestSync(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	identityId, roomId, err := c.roomScope(ctx)
	if err != nil {
		return err
	}

	snapshot, err := c.sessionService.RequestSync(ctx, &session.RequestSyncParams{
		IdentityId: identityId,
		RoomId:     roomId,
	})
	if err != nil {
		return err
	}

	return c.writeToConn(ctx, conn, &Output{
		Type:    "sync-response",
		Payload: snapshot,
	})
}
