package controller

import "github.com/sharetube/watchtogether/internal/domain"

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

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
)

type ConnectedOutput struct {
	ConnId string `json:"conn_id"`
}

type RoomSettingsOutput struct {
	Password    *string            `json:"password,omitempty"`
	AllowUpload domain.AllowUpload `json:"allow_upload"`
}

func newRoomSettingsOutput(settings domain.Settings) RoomSettingsOutput {
	return RoomSettingsOutput{
		Password:    settings.Password,
		AllowUpload: settings.AllowUpload,
	}
}

type SetSourceOutput struct {
	URL string `json:"url"`
}

type RequestStateOutput struct {
	To string `json:"to"`
}

type JoinFailedOutput struct {
	Reason string `json:"reason"`
}

type ErrorMessageOutput struct {
	Message string `json:"message"`
}

type TimeResponseOutput struct {
	ClientSentAt float64 `json:"client_sent_at"`
	ServerTime   float64 `json:"server_time"`
}
