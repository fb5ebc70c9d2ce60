package session

import (
	"context"
	"time"
)

// RunPresenceSweeper periodically purges identities whose disconnect
// grace period ran out, releasing their room membership. The sweep
// takes each room's serialization lock before touching its member set,
// so it never races a live join or leave. No broadcast happens here:
// the user-left notification already went out when the connection
// dropped.
func (s *service) RunPresenceSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepIdentities(ctx)
		}
	}
}

func (s *service) sweepIdentities(ctx context.Context) {
	purged := s.identities.PurgeDisconnectedOlderThan(s.cfg.DisconnectedGrace)

	for _, ident := range purged {
		if ident.CurrentRoomId == "" {
			continue
		}

		rs := s.lockRoom(ident.CurrentRoomId)
		delete(rs.members, ident.Id)
		if len(rs.members) == 0 && rs.emptySince == nil {
			now := time.Now()
			rs.emptySince = &now
		}
		rs.mu.Unlock()
	}

	if len(purged) > 0 {
		s.logger.InfoContext(ctx, "purged stale identities", "count", len(purged))
	}
}

// RunRoomReaper periodically deletes rooms that stayed empty beyond the
// grace window, and reclaims rooms inactive beyond the absolute
// threshold regardless of participant count. Deletion cascades to the
// playlist engine and the permission overlay.
func (s *service) RunRoomReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reapRooms(ctx)
		}
	}
}

func (s *service) reapRooms(ctx context.Context) {
	emptyCutoff := time.Now().Add(-s.cfg.EmptyRoomGrace)

	for _, roomId := range s.roomIds() {
		rs := s.lockRoom(roomId)
		expired := rs.emptySince != nil && rs.emptySince.Before(emptyCutoff) && len(rs.members) == 0
		rs.mu.Unlock()

		if !expired {
			continue
		}

		if err := s.roomDir.DeleteRoom(ctx, roomId); err != nil {
			s.logger.WarnContext(ctx, "failed to delete empty room", "room_id", roomId, "error", err)
		}
		s.dropRoom(roomId)
		s.logger.InfoContext(ctx, "empty room reaped", "room_id", roomId)
	}

	// absolute threshold, participant count ignored
	result, err := s.roomDir.DeleteInactiveOlderThan(ctx, time.Now().Add(-s.cfg.AbsoluteRoomTTL))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to delete inactive rooms", "error", err)
		return
	}

	for _, roomId := range result.Ids {
		rs := s.lockRoom(roomId)
		for identityId := range rs.members {
			// never detach an identity that has already moved to another room
			if ident, err := s.identities.ById(identityId); err != nil || ident.CurrentRoomId != roomId {
				continue
			}
			if err := s.identities.SetRoom(identityId, ""); err != nil {
				s.logger.DebugContext(ctx, "failed to detach member", "identity_id", identityId, "error", err)
			}
		}
		rs.mu.Unlock()

		s.dropRoom(roomId)
	}
}
