package viewer

import (
	"encoding/json"

	"github.com/sharetube/watchtogether/internal/domain"
)

const (
	typeConnected    = "connected"
	typeYouAreHost   = "you_are_host"
	typeChatHistory  = "chat_history"
	typeChatMessage  = "chat_message"
	typeParticipants = "participants"
	typeRoomSettings = "room_settings"
	typeSetSource    = "set_source"
	typeQueueUpdated = "queue_updated"
	typeControl      = "control"
	typeRequestState = "request_state"
	typeJoinFailed   = "join_failed"
	typeErrorMessage = "error_message"
	typeTimeResponse = "time_response"

	typeJoin         = "join"
	typeAnnounce     = "announce"
	typeLeaveRoom    = "leave_room"
	typeRequestQueue = "request_queue"
	typeEnqueue      = "enqueue"
	typeNext         = "next"
	typeSendStateTo  = "send_state_to"
	typeTimeRequest  = "time_request"
)

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type roomPayload struct {
	RoomId string `json:"room_id"`
}

type joinPayload struct {
	RoomId   string  `json:"room_id"`
	Password *string `json:"password,omitempty"`
}

type announcePayload struct {
	RoomId string  `json:"room_id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
}

type chatPayload struct {
	RoomId string  `json:"room_id"`
	Text   string  `json:"text"`
	Name   string  `json:"name,omitempty"`
	At     float64 `json:"at"`
	Avatar *string `json:"avatar,omitempty"`
}

type enqueuePayload struct {
	RoomId string           `json:"room_id"`
	Item   domain.QueueItem `json:"item"`
}

type setSourcePayload struct {
	RoomId string `json:"room_id,omitempty"`
	URL    string `json:"url"`
}

type controlPayload struct {
	RoomId string               `json:"room_id"`
	Msg    domain.PlaybackEvent `json:"msg"`
}

type sendStateToPayload struct {
	To    string               `json:"to"`
	State domain.PlaybackEvent `json:"state"`
}

type timeRequestPayload struct {
	ClientSentAt float64 `json:"client_sent_at"`
}

type timeResponsePayload struct {
	ClientSentAt float64 `json:"client_sent_at"`
	ServerTime   float64 `json:"server_time"`
}

type connectedPayload struct {
	ConnId string `json:"conn_id"`
}

type requestStatePayload struct {
	To string `json:"to"`
}

type reasonPayload struct {
	Reason string `json:"reason"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type participantsPayload struct {
	Count int                  `json:"count"`
	List  []domain.Participant `json:"list"`
}

type settingsPayload struct {
	Password    *string            `json:"password,omitempty"`
	AllowUpload domain.AllowUpload `json:"allow_upload"`
}
