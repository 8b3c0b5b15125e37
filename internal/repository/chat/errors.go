package chat

import "errors"

var (
	ErrEmptyRoomId = errors.New("room id is empty")
)
