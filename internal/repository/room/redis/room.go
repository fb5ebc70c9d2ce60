package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/repository/room"
)

func (r repo) CreateRoom(ctx context.Context, params *room.CreateRoomParams) (*room.Record, error) {
	now := time.Now()

	record := room.Record{
		Id:                 uuid.NewString(),
		CreatorId:          params.CreatorId,
		RequiresPassword:   params.Password != "",
		DefaultPermissions: domain.DefaultPermissions(),
		CreatedAt:          now,
		LastActiveAt:       now,
	}

	if record.RequiresPassword {
		hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		record.PasswordHash = string(hash)
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, r.getRoomKey(record.Id), recordFields(&record))
	pipe.ZAdd(ctx, activityKey, redis.Z{Score: float64(now.Unix()), Member: record.Id})
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.DebugContext(ctx, "failed to create room", "error", err)
		return nil, err
	}

	return &record, nil
}

func (r repo) GetRoom(ctx context.Context, roomId string) (*room.Record, error) {
	fields, err := r.rc.HGetAll(ctx, r.getRoomKey(roomId)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, room.ErrRoomNotFound
	}

	return recordFromFields(roomId, fields), nil
}

func (r repo) RoomExists(ctx context.Context, roomId string) (bool, error) {
	exists, err := r.rc.Exists(ctx, r.getRoomKey(roomId)).Result()
	if err != nil {
		return false, err
	}

	return exists == 1, nil
}

func (r repo) ValidatePassword(ctx context.Context, roomId string, password string) (bool, error) {
	record, err := r.GetRoom(ctx, roomId)
	if err != nil {
		return false, err
	}

	if !record.RequiresPassword {
		return true, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return false, nil
	}

	return true, nil
}

func (r repo) UpdateDefaultPermissions(ctx context.Context, roomId string, set domain.PermissionSet) error {
	exists, err := r.RoomExists(ctx, roomId)
	if err != nil {
		return err
	}
	if !exists {
		return room.ErrRoomNotFound
	}

	return r.rc.HSet(ctx, r.getRoomKey(roomId), permissionFields(set)).Err()
}

// TouchActivity refreshes the room's position in the activity index.
func (r repo) TouchActivity(ctx context.Context, roomId string) error {
	now := time.Now()
	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, r.getRoomKey(roomId), "last_active_at", now.Unix())
	pipe.ZAdd(ctx, activityKey, redis.Z{Score: float64(now.Unix()), Member: roomId})
	_, err := pipe.Exec(ctx)

	return err
}

func (r repo) DeleteRoom(ctx context.Context, roomId string) error {
	pipe := r.rc.TxPipeline()
	del := pipe.Del(ctx, r.getRoomKey(roomId))
	pipe.ZRem(ctx, activityKey, roomId)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	if del.Val() == 0 {
		return room.ErrRoomNotFound
	}

	return nil
}

// DeleteInactiveOlderThan removes every room whose last activity is
// before the cutoff, regardless of participant count.
func (r repo) DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (room.DeleteInactiveResult, error) {
	maxScore := strconv.FormatInt(cutoff.Unix(), 10)

	ids, err := r.rc.ZRangeByScore(ctx, activityKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: maxScore,
	}).Result()
	if err != nil {
		return room.DeleteInactiveResult{}, err
	}
	if len(ids) == 0 {
		return room.DeleteInactiveResult{}, nil
	}

	pipe := r.rc.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, r.getRoomKey(id))
	}
	pipe.ZRemRangeByScore(ctx, activityKey, "-inf", maxScore)
	if _, err := pipe.Exec(ctx); err != nil {
		return room.DeleteInactiveResult{}, err
	}

	r.logger.InfoContext(ctx, "inactive rooms deleted", "count", len(ids))
	return room.DeleteInactiveResult{Count: len(ids), Ids: ids}, nil
}
