package domain

import (
	"time"

	"github.com/gorilla/websocket"
)

// Identity is a participant's persistent anonymous handle. It survives
// reconnects: the websocket connection is attached and detached while the
// identity itself lives until the disconnect grace period runs out.
type Identity struct {
	Id             string
	DisplayName    string
	Conn           *websocket.Conn
	JoinedAt       time.Time
	LastSeenAt     time.Time
	DisconnectedAt *time.Time
	CurrentRoomId  string
	Permissions    PermissionSet
}

// Connected reports whether the identity currently holds a live connection.
func (i *Identity) Connected() bool {
	return i.Conn != nil
}
