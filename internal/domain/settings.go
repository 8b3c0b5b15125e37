package domain

type AllowUpload string

const (
	AllowUploadHost AllowUpload = "host"
	AllowUploadAll  AllowUpload = "all"
)

func (a AllowUpload) IsValid() bool {
	return a == AllowUploadHost || a == AllowUploadAll
}

type Settings struct {
	Password    *string     `json:"password"`
	AllowUpload AllowUpload `json:"allow_upload"`
}

func DefaultSettings() Settings {
	return Settings{
		Password:    nil,
		AllowUpload: AllowUploadHost,
	}
}

func (s Settings) HasPassword() bool {
	return s.Password != nil
}

// CheckPassword is true when the room has no password or the candidate matches it.
func (s Settings) CheckPassword(candidate *string) bool {
	if s.Password == nil {
		return true
	}

	return candidate != nil && *candidate == *s.Password
}

// SettingsPatch holds only the fields a client sent. An empty password clears it.
type SettingsPatch struct {
	Password    *string      `json:"password"`
	AllowUpload *AllowUpload `json:"allow_upload"`
}

func (s Settings) Merge(patch SettingsPatch) Settings {
	merged := s
	if patch.Password != nil {
		if *patch.Password == "" {
			merged.Password = nil
		} else {
			password := *patch.Password
			merged.Password = &password
		}
	}

	if patch.AllowUpload != nil && patch.AllowUpload.IsValid() {
		merged.AllowUpload = *patch.AllowUpload
	}

	return merged
}

// SettingsFromPatch builds create_room settings: absent fields fall back to defaults.
func SettingsFromPatch(patch SettingsPatch) Settings {
	return DefaultSettings().Merge(patch)
}
