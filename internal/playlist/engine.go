package playlist

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/pkg/videourl"
)

// Engine owns one PlaylistState per room. It is a pure state machine:
// no network, no timers. Mutations on a single room are serialized by
// the session coordinator; the engine's own lock only guards the room
// map itself.
type Engine struct {
	states map[string]*domain.PlaylistState
	mu     sync.RWMutex

	capacity int
}

func NewEngine(capacity int) *Engine {
	return &Engine{
		states:   make(map[string]*domain.PlaylistState),
		capacity: capacity,
	}
}

// VideoDescriptor is the caller-supplied description of a video to queue.
type VideoDescriptor struct {
	Url       string
	Title     string
	Thumbnail *string
}

// Ensure get-or-creates the room's state and returns a snapshot.
func (e *Engine) Ensure(roomId string) domain.PlaylistState {
	return snapshot(e.ensure(roomId))
}

func (e *Engine) ensure(roomId string) *domain.PlaylistState {
	e.mu.RLock()
	state := e.states[roomId]
	e.mu.RUnlock()
	if state != nil {
		return state
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	state = e.states[roomId]
	if state == nil {
		state = &domain.PlaylistState{Items: []domain.PlaylistItem{}}
		e.states[roomId] = state
	}
	return state
}

// Destroy drops the room's state entirely.
func (e *Engine) Destroy(roomId string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.states, roomId)
}

// AddVideo validates and appends the descriptor. The first video added
// to an empty queue autostarts. No mutation happens on a failed
// validation. A missing thumbnail is filled in from the video id.
func (e *Engine) AddVideo(roomId string, video *VideoDescriptor, addedBy domain.AddedBy) (domain.PlaylistState, *domain.PlaylistItem, error) {
	if strings.TrimSpace(video.Url) == "" || strings.TrimSpace(video.Title) == "" {
		return domain.PlaylistState{}, nil, domain.ErrInvalidVideo
	}
	videoId, err := videourl.Parse(video.Url)
	if err != nil {
		return domain.PlaylistState{}, nil, domain.ErrInvalidVideo
	}

	state := e.ensure(roomId)

	if len(state.Items) >= e.capacity {
		return domain.PlaylistState{}, nil, domain.ErrPlaylistLimitReached
	}

	thumbnail := video.Thumbnail
	if thumbnail == nil {
		t := videourl.ThumbnailUrl(videoId)
		thumbnail = &t
	}

	item := domain.PlaylistItem{
		Id:        uuid.NewString(),
		Url:       video.Url,
		Title:     video.Title,
		Thumbnail: thumbnail,
		AddedBy:   addedBy,
		AddedAt:   time.Now(),
	}

	wasEmpty := len(state.Items) == 0
	state.Items = append(state.Items, item)

	if wasEmpty {
		now := time.Now()
		state.CurrentIndex = 0
		state.IsPlaying = true
		state.CurrentItemStartTime = &now
	}

	return snapshot(state), &item, nil
}

// RemoveVideo removes the item and adjusts the cursor:
//   - removed before the cursor: cursor shifts down one
//   - removed at the cursor with nothing after: stop, cursor to 0
//   - removed at the cursor with later items: cursor stays, now pointing
//     at the item that shifted into the slot (playback is not advanced
//     here; the caller decides whether to follow)
func (e *Engine) RemoveVideo(roomId string, itemId string) (domain.PlaylistState, error) {
	state := e.ensure(roomId)

	index := -1
	for i, item := range state.Items {
		if item.Id == itemId {
			index = i
			break
		}
	}
	if index == -1 {
		return domain.PlaylistState{}, domain.ErrVideoNotFound
	}

	state.Items = append(state.Items[:index], state.Items[index+1:]...)

	switch {
	case len(state.Items) == 0:
		resetEmpty(state)
	case index < state.CurrentIndex:
		state.CurrentIndex--
	case index == state.CurrentIndex && state.CurrentIndex >= len(state.Items):
		state.CurrentIndex = 0
		state.IsPlaying = false
		state.CurrentItemStartTime = nil
	}

	return snapshot(state), nil
}

// Reorder moves the item at fromIndex to toIndex. The cursor follows
// the moved item if it was the current one, and shifts by one when the
// move crosses over it.
func (e *Engine) Reorder(roomId string, fromIndex, toIndex int) (domain.PlaylistState, error) {
	state := e.ensure(roomId)

	n := len(state.Items)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		return domain.PlaylistState{}, domain.ErrInvalidIndex
	}

	item := state.Items[fromIndex]
	state.Items = append(state.Items[:fromIndex], state.Items[fromIndex+1:]...)
	state.Items = append(state.Items[:toIndex], append([]domain.PlaylistItem{item}, state.Items[toIndex:]...)...)

	switch {
	case state.CurrentIndex == fromIndex:
		state.CurrentIndex = toIndex
	case fromIndex < state.CurrentIndex && toIndex >= state.CurrentIndex:
		state.CurrentIndex--
	case fromIndex > state.CurrentIndex && toIndex <= state.CurrentIndex:
		state.CurrentIndex++
	}

	return snapshot(state), nil
}

// PlayAt points the cursor at index and starts playback.
func (e *Engine) PlayAt(roomId string, index int) (domain.PlaylistState, error) {
	state := e.ensure(roomId)

	if index < 0 || index >= len(state.Items) {
		return domain.PlaylistState{}, domain.ErrInvalidIndex
	}

	now := time.Now()
	state.CurrentIndex = index
	state.IsPlaying = true
	state.CurrentItemStartTime = &now

	return snapshot(state), nil
}

// Advance moves to the next item when the current one ends. At the end
// of the queue it wraps when looping, otherwise stops and resets the
// cursor.
func (e *Engine) Advance(roomId string) (domain.PlaylistState, bool) {
	state := e.ensure(roomId)

	if len(state.Items) == 0 {
		return snapshot(state), true
	}

	now := time.Now()

	if state.CurrentIndex >= len(state.Items)-1 {
		if !state.IsLooping {
			state.CurrentIndex = 0
			state.IsPlaying = false
			state.CurrentItemStartTime = nil
			return snapshot(state), true
		}
		state.CurrentIndex = 0
	} else {
		state.CurrentIndex++
	}

	state.IsPlaying = true
	state.CurrentItemStartTime = &now

	return snapshot(state), false
}

// SetLooping flips the loop flag.
func (e *Engine) SetLooping(roomId string, isLooping bool) domain.PlaylistState {
	state := e.ensure(roomId)
	state.IsLooping = isLooping

	return snapshot(state)
}

// Current returns the item under the cursor, if any.
func (e *Engine) Current(roomId string) (*domain.PlaylistItem, bool) {
	state := e.ensure(roomId)

	if len(state.Items) == 0 {
		return nil, false
	}

	item := state.Items[state.CurrentIndex]
	return &item, true
}

func resetEmpty(state *domain.PlaylistState) {
	state.Items = []domain.PlaylistItem{}
	state.CurrentIndex = 0
	state.IsPlaying = false
	state.CurrentItemStartTime = nil
}

// snapshot copies the state so callers never alias engine-owned slices.
func snapshot(state *domain.PlaylistState) domain.PlaylistState {
	c := *state
	c.Items = append([]domain.PlaylistItem(nil), state.Items...)
	if state.CurrentItemStartTime != nil {
		t := *state.CurrentItemStartTime
		c.CurrentItemStartTime = &t
	}
	return c
}
