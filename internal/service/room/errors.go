package room

import "errors"

const (
	ReasonIncorrectPassword = "incorrect_password"
	ReasonRoomFull          = "room_full"
	ReasonNotHost           = "not_host"
	ReasonNotAllowed        = "not_allowed"
)

// AuthError is reported to the acting connection only. Two AuthErrors match with
// errors.Is when their reasons are equal.
type AuthError struct {
	Reason  string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}

	return t.Reason == e.Reason
}

func newAuthError(reason, message string) *AuthError {
	return &AuthError{
		Reason:  reason,
		Message: message,
	}
}

var (
	ErrIncorrectPassword = newAuthError(ReasonIncorrectPassword, "incorrect password")
	ErrRoomFull          = newAuthError(ReasonRoomFull, "room is full")
	ErrNotHost           = newAuthError(ReasonNotHost, "only host can perform this action")
	ErrNotAllowed        = newAuthError(ReasonNotAllowed, "not allowed")
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrConnNotFound       = errors.New("connection not found")
	ErrNotMember          = errors.New("connection is not a member of the room")
	ErrEmptyRoomId        = errors.New("empty room id")
	ErrMissingUrl         = errors.New("missing url")
	ErrInvalidOrder       = errors.New("new order is not a permutation of the queue")
	ErrInvalidEvent       = errors.New("invalid playback event")
	ErrRoomIdNotGenerated = errors.New("failed to generate unused room id")
)
