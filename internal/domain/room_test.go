package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElectHostFollowsJoinOrder(t *testing.T) {
	r := NewRoom("room", 0)
	r.Members.Add("c1")
	r.Members.Add("c2")
	r.Members.Add("c3")
	r.Host = "c1"

	newHost, removed := r.RemoveMember("c1")
	assert.True(t, removed)
	assert.Equal(t, "c2", newHost)
	assert.Equal(t, "c2", r.Host)

	newHost, removed = r.RemoveMember("c3")
	assert.True(t, removed)
	assert.Empty(t, newHost)
	assert.Equal(t, "c2", r.Host)

	newHost, _ = r.RemoveMember("c2")
	assert.Empty(t, newHost)
	assert.False(t, r.HasHost())
	assert.True(t, r.Members.IsEmpty())
}

func TestRemoveMemberUnknown(t *testing.T) {
	r := NewRoom("room", 0)
	r.Members.Add("c1")

	_, removed := r.RemoveMember("c9")
	assert.False(t, removed)
	assert.Equal(t, 1, r.Members.Length())
}

func TestIsAllowed(t *testing.T) {
	r := NewRoom("room", 0)
	r.Members.Add("c1")
	r.Members.Add("c2")
	r.Host = "c1"

	assert.True(t, r.IsAllowed("c1", ActionChangeSource))
	assert.True(t, r.IsAllowed("c1", ActionEditQueue))
	assert.False(t, r.IsAllowed("c2", ActionChangeSource))

	r.Settings.AllowUpload = AllowUploadAll
	assert.True(t, r.IsAllowed("c2", ActionChangeSource))
	assert.False(t, r.IsAllowed("c2", ActionUpdateSettings))
	assert.False(t, r.IsAllowed("c2", ActionEditQueue))
}

func TestRemoveMemberDropsInfo(t *testing.T) {
	r := NewRoom("room", 0)
	r.Members.Add("c1")
	r.Members.SetInfo("c1", MemberInfo{Name: "alice"})
	assert.Equal(t, "alice", r.Members.Name("c1"))

	r.RemoveMember("c1")
	_, ok := r.Members.Info("c1")
	assert.False(t, ok)
	assert.Equal(t, "Anon", r.Members.Name("c1"))
}

func TestParticipantsInJoinOrder(t *testing.T) {
	m := NewMembers()
	m.Add("c2")
	m.Add("c1")
	m.SetInfo("c1", MemberInfo{Name: "one"})

	participants := m.Participants()
	assert.Equal(t, []Participant{{Id: "c2", Name: "Anon"}, {Id: "c1", Name: "one"}}, participants)
}
