package domain

// PermissionSet is the capability vector a participant holds inside a room.
type PermissionSet struct {
	EditPermissions  bool `json:"edit_permissions" redis:"edit_permissions"`
	SendMessages     bool `json:"send_messages" redis:"send_messages"`
	DeleteMessages   bool `json:"delete_messages" redis:"delete_messages"`
	ChangeVideo      bool `json:"change_video" redis:"change_video"`
	InteractionVideo bool `json:"interaction_video" redis:"interaction_video"`
}

// DefaultPermissions is what a room seeds joiners with unless its creator
// changed the defaults.
func DefaultPermissions() PermissionSet {
	return PermissionSet{
		EditPermissions:  false,
		SendMessages:     true,
		DeleteMessages:   false,
		ChangeVideo:      true,
		InteractionVideo: true,
	}
}

// FullPermissions is what the room creator holds.
func FullPermissions() PermissionSet {
	return PermissionSet{
		EditPermissions:  true,
		SendMessages:     true,
		DeleteMessages:   true,
		ChangeVideo:      true,
		InteractionVideo: true,
	}
}

// PermissionUpdate is a partial permission set: nil fields keep the
// current value of whatever set the update is applied against.
type PermissionUpdate struct {
	EditPermissions  *bool `json:"edit_permissions"`
	SendMessages     *bool `json:"send_messages"`
	DeleteMessages   *bool `json:"delete_messages"`
	ChangeVideo      *bool `json:"change_video"`
	InteractionVideo *bool `json:"interaction_video"`
}

// Apply merges the update into base, field by field.
func (u *PermissionUpdate) Apply(base PermissionSet) PermissionSet {
	if u.EditPermissions != nil {
		base.EditPermissions = *u.EditPermissions
	}
	if u.SendMessages != nil {
		base.SendMessages = *u.SendMessages
	}
	if u.DeleteMessages != nil {
		base.DeleteMessages = *u.DeleteMessages
	}
	if u.ChangeVideo != nil {
		base.ChangeVideo = *u.ChangeVideo
	}
	if u.InteractionVideo != nil {
		base.InteractionVideo = *u.InteractionVideo
	}
	return base
}
