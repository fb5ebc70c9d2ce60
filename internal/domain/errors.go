package domain

import "fmt"

// ErrorKind is the closed set of error categories carried on the wire.
// The human-readable message stays a detail field so clients can branch
// on the kind instead of parsing strings.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation_error"
	KindNotFound         ErrorKind = "not_found"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindCapacity         ErrorKind = "capacity_error"
)

type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"error"`
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

var (
	ErrRoomNotFound         = NewError(KindNotFound, "room not found")
	ErrIdentityNotFound     = NewError(KindNotFound, "identity not found")
	ErrVideoNotFound        = NewError(KindNotFound, "video not found")
	ErrMessageNotFound      = NewError(KindNotFound, "message not found")
	ErrPermissionDenied     = NewError(KindPermissionDenied, "permission denied")
	ErrPlaylistLimitReached = NewError(KindCapacity, "playlist limit reached")
	ErrInvalidVideo         = NewError(KindValidation, "invalid video")
	ErrInvalidIndex         = NewError(KindValidation, "invalid index")
	ErrWrongPassword        = NewError(KindPermissionDenied, "wrong password")
)
