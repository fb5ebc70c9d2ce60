package redis

import (
	"strconv"
	"time"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/repository/room"
)

func recordFields(record *room.Record) map[string]any {
	fields := map[string]any{
		"creator_id":        record.CreatorId,
		"requires_password": boolField(record.RequiresPassword),
		"password_hash":     record.PasswordHash,
		"created_at":        record.CreatedAt.Unix(),
		"last_active_at":    record.LastActiveAt.Unix(),
	}
	for k, v := range permissionFields(record.DefaultPermissions) {
		fields[k] = v
	}

	return fields
}

func permissionFields(set domain.PermissionSet) map[string]any {
	return map[string]any{
		"perm_edit_permissions":  boolField(set.EditPermissions),
		"perm_send_messages":     boolField(set.SendMessages),
		"perm_delete_messages":   boolField(set.DeleteMessages),
		"perm_change_video":      boolField(set.ChangeVideo),
		"perm_interaction_video": boolField(set.InteractionVideo),
	}
}

func recordFromFields(roomId string, fields map[string]string) *room.Record {
	return &room.Record{
		Id:               roomId,
		CreatorId:        fields["creator_id"],
		RequiresPassword: fieldToBool(fields["requires_password"]),
		PasswordHash:     fields["password_hash"],
		DefaultPermissions: domain.PermissionSet{
			EditPermissions:  fieldToBool(fields["perm_edit_permissions"]),
			SendMessages:     fieldToBool(fields["perm_send_messages"]),
			DeleteMessages:   fieldToBool(fields["perm_delete_messages"]),
			ChangeVideo:      fieldToBool(fields["perm_change_video"]),
			InteractionVideo: fieldToBool(fields["perm_interaction_video"]),
		},
		CreatedAt:    time.Unix(fieldToInt64(fields["created_at"]), 0),
		LastActiveAt: time.Unix(fieldToInt64(fields["last_active_at"]), 0),
	}
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func fieldToBool(field string) bool {
	return field == "1"
}

func fieldToInt64(field string) int64 {
	i, _ := strconv.ParseInt(field, 10, 64)
	return i
}
