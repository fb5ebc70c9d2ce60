package domain

import "time"

// Room is the directory's view of a room: persistent metadata, not the
// live session state.
type Room struct {
	Id                 string        `json:"id"`
	CreatorId          string        `json:"creator_id"`
	RequiresPassword   bool          `json:"requires_password"`
	DefaultPermissions PermissionSet `json:"default_permissions"`
	CreatedAt          time.Time     `json:"created_at"`
}

// ChatMessage lives in the room's in-memory history ring only; chat is
// not durable across process restarts.
type ChatMessage struct {
	Id          string    `json:"id"`
	IdentityId  string    `json:"identity_id"`
	DisplayName string    `json:"display_name"`
	Text        string    `json:"text"`
	SentAt      time.Time `json:"sent_at"`
}
