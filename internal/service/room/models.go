package room

import "github.com/sharetube/watchtogether/internal/domain"

type Participants struct {
	Count int                  `json:"count"`
	List  []domain.Participant `json:"list"`
}

type RoomSettingsSummary struct {
	HasPassword bool               `json:"has_password"`
	AllowUpload domain.AllowUpload `json:"allow_upload"`
}

type RoomSummary struct {
	Id       string              `json:"id"`
	Host     *string             `json:"host"`
	Count    int                 `json:"count"`
	Settings RoomSettingsSummary `json:"settings"`
	Source   *string             `json:"source"`
	Queue    int                 `json:"queue"`
	Messages int                 `json:"messages"`
}
