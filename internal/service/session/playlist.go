package session

import (
	"context"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/playlist"
)

// requireCapability loads the sender and rejects the action when the
// named capability is missing. No state is mutated on denial.
func (s *service) requireCapability(identityId string, check func(domain.PermissionSet) bool) (*domain.Identity, error) {
	ident, err := s.identities.ById(identityId)
	if err != nil {
		return nil, err
	}
	if !check(ident.Permissions) {
		return nil, domain.ErrPermissionDenied
	}

	return ident, nil
}

type AddVideoParams struct {
	IdentityId string
	RoomId     string
	Url        string
	Title      string
	Thumbnail  *string
}

func (s *service) AddVideo(ctx context.Context, params *AddVideoParams) (AddVideoResponse, error) {
	ident, err := s.requireCapability(params.IdentityId, func(p domain.PermissionSet) bool { return p.ChangeVideo })
	if err != nil {
		return AddVideoResponse{}, err
	}

	rs := s.lockRoom(params.RoomId)
	defer rs.mu.Unlock()

	state, item, err := s.engine.AddVideo(params.RoomId, &playlist.VideoDescriptor{
		Url:       params.Url,
		Title:     params.Title,
		Thumbnail: params.Thumbnail,
	}, domain.AddedBy{IdentityId: ident.Id, DisplayName: ident.DisplayName})
	if err != nil {
		return AddVideoResponse{}, err
	}

	if err := s.roomDir.TouchActivity(ctx, params.RoomId); err != nil {
		s.logger.WarnContext(ctx, "failed to touch room activity", "error", err)
	}

	return AddVideoResponse{
		AddedVideo: *item,
		Playlist:   state,
		Conns:      s.connsForRoom(params.RoomId, ""),
	}, nil
}

type RemoveVideoParams struct {
	IdentityId string
	RoomId     string
	ItemId     string
}

func (s *service) RemoveVideo(ctx context.Context, params *RemoveVideoParams) (PlaylistResponse, error) {
	if _, err := s.requireCapability(params.IdentityId, func(p domain.PermissionSet) bool { return p.ChangeVideo }); err != nil {
		return PlaylistResponse{}, err
	}

	rs := s.lockRoom(params.RoomId)
	defer rs.mu.Unlock()

	state, err := s.engine.RemoveVideo(params.RoomId, params.ItemId)
	if err != nil {
		return PlaylistResponse{}, err
	}

	return PlaylistResponse{
		Playlist: state,
		Conns:    s.connsForRoom(params.RoomId, ""),
	}, nil
}

type ReorderPlaylistParams struct {
	IdentityId string
	RoomId     string
	FromIndex  int
	ToIndex    int
}

func (s *service) ReorderPlaylist(ctx context.Context, params *ReorderPlaylistParams) (PlaylistResponse, error) {
	if _, err := s.requireCapability(params.IdentityId, func(p domain.PermissionSet) bool { return p.ChangeVideo }); err != nil {
		return PlaylistResponse{}, err
	}

	rs := s.lockRoom(params.RoomId)
	defer rs.mu.Unlock()

	state, err := s.engine.Reorder(params.RoomId, params.FromIndex, params.ToIndex)
	if err != nil {
		return PlaylistResponse{}, err
	}

	return PlaylistResponse{
		Playlist: state,
		Conns:    s.connsForRoom(params.RoomId, ""),
	}, nil
}

type PlayVideoParams struct {
	IdentityId string
	RoomId     string
	Index      int
}

func (s *service) PlayVideo(ctx context.Context, params *PlayVideoParams) (PlayVideoResponse, error) {
	if _, err := s.requireCapability(params.IdentityId, func(p domain.PermissionSet) bool { return p.ChangeVideo }); err != nil {
		return PlayVideoResponse{}, err
	}

	rs := s.lockRoom(params.RoomId)
	defer rs.mu.Unlock()

	state, err := s.engine.PlayAt(params.RoomId, params.Index)
	if err != nil {
		return PlayVideoResponse{}, err
	}

	return PlayVideoResponse{
		Playlist: state,
		Current:  state.Items[state.CurrentIndex],
		Conns:    s.connsForRoom(params.RoomId, ""),
	}, nil
}

type VideoEndedParams struct {
	IdentityId string
	RoomId     string
}

// VideoEnded advances the cursor. At the end of a non-looping queue
// playback stops and the cursor resets.
func (s *service) VideoEnded(ctx context.Context, params *VideoEndedParams) (VideoEndedResponse, error) {
	if _, err := s.requireCapability(params.IdentityId, func(p domain.PermissionSet) bool { return p.ChangeVideo }); err != nil {
		return VideoEndedResponse{}, err
	}

	rs := s.lockRoom(params.RoomId)
	defer rs.mu.Unlock()

	state, endOfQueue := s.engine.Advance(params.RoomId)

	resp := VideoEndedResponse{
		EndOfQueue: endOfQueue,
		Playlist:   state,
		Conns:      s.connsForRoom(params.RoomId, ""),
	}
	if !endOfQueue {
		item := state.Items[state.CurrentIndex]
		resp.Current = &item
	}

	return resp, nil
}

type ToggleLoopParams struct {
	IdentityId string
	RoomId     string
	IsLooping  bool
}

func (s *service) ToggleLoop(ctx context.Context, params *ToggleLoopParams) (PlaylistResponse, error) {
	if _, err := s.requireCapability(params.IdentityId, func(p domain.PermissionSet) bool { return p.ChangeVideo }); err != nil {
		return PlaylistResponse{}, err
	}

	rs := s.lockRoom(params.RoomId)
	defer rs.mu.Unlock()

	state := s.engine.SetLooping(params.RoomId, params.IsLooping)

	return PlaylistResponse{
		Playlist: state,
		Conns:    s.connsForRoom(params.RoomId, ""),
	}, nil
}
