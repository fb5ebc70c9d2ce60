package redis

import (
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const activityKey = "rooms:by-activity"

// repo persists room directory records in redis. Room metadata lives in
// a hash per room; a sorted set indexed by last-activity timestamp backs
// the inactive-room reap.
type repo struct {
	rc     *redis.Client
	logger *slog.Logger
}

func NewRepo(rc *redis.Client, logger *slog.Logger) *repo {
	return &repo{
		rc:     rc,
		logger: logger,
	}
}

func (r repo) getRoomKey(roomId string) string {
	return "room:" + roomId
}
