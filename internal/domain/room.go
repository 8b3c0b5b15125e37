package domain

type Action int

const (
	ActionChangeSource Action = iota
	ActionUpdateSettings
	ActionEditQueue
)

type Room struct {
	Id            string
	Host          string
	Members       *Members
	Settings      Settings
	Queue         *Queue
	CurrentSource string
	LastControl   *PlaybackEvent
}

func NewRoom(id string, queueLimit int) *Room {
	return &Room{
		Id:       id,
		Members:  NewMembers(),
		Settings: DefaultSettings(),
		Queue:    NewQueue(queueLimit),
	}
}

func (r Room) HasHost() bool {
	return r.Host != ""
}

func (r Room) IsHost(connId string) bool {
	return r.Host != "" && r.Host == connId
}

// IsAllowed gates host-only mutations. Changing the source is open to everyone
// when the room allows uploads from all members.
func (r Room) IsAllowed(connId string, action Action) bool {
	if r.IsHost(connId) {
		return true
	}

	return action == ActionChangeSource && r.Settings.AllowUpload == AllowUploadAll
}

// ElectHost promotes the earliest joined member. Returns "" when the room is empty.
func (r *Room) ElectHost() string {
	r.Host = r.Members.First()
	return r.Host
}

// RemoveMember drops the member and re-elects when it was the host.
// The returned id is the new host, or "" when the host did not change.
func (r *Room) RemoveMember(connId string) (string, bool) {
	if !r.Members.Remove(connId) {
		return "", false
	}

	if r.Host != connId {
		return "", true
	}

	return r.ElectHost(), true
}
