package domain

import "time"

// AddedBy identifies who queued a video, denormalized so the entry stays
// meaningful after the identity is purged.
type AddedBy struct {
	IdentityId  string `json:"identity_id"`
	DisplayName string `json:"display_name"`
}

// PlaylistItem is immutable once added except by removal.
type PlaylistItem struct {
	Id        string    `json:"id"`
	Url       string    `json:"url"`
	Title     string    `json:"title"`
	Thumbnail *string   `json:"thumbnail"`
	AddedBy   AddedBy   `json:"added_by"`
	AddedAt   time.Time `json:"added_at"`
}

// PlaylistState is a room's video queue plus the play cursor.
//
// Invariant: 0 <= CurrentIndex < len(Items) whenever Items is non-empty.
// An empty queue always has CurrentIndex 0, IsPlaying false and a nil
// CurrentItemStartTime.
type PlaylistState struct {
	Items                []PlaylistItem `json:"items"`
	CurrentIndex         int            `json:"current_index"`
	IsPlaying            bool           `json:"is_playing"`
	CurrentItemStartTime *time.Time     `json:"current_item_start_time"`
	IsLooping            bool           `json:"is_looping"`
}

// SyncEvent instructs other clients to align their local player to a
// given action and position. It is relayed optimistically: the server
// keeps no authoritative clock.
type SyncEvent struct {
	Action    string    `json:"action"`
	Time      float64   `json:"time"`
	EmittedAt time.Time `json:"emitted_at"`
}

const (
	SyncActionPlay  = "play"
	SyncActionPause = "pause"
	SyncActionSeek  = "seek"
)
