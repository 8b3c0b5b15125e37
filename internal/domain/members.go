package domain

const defaultMemberName = "Anon"

type MemberInfo struct {
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

type Participant struct {
	Id     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

// Members keeps connection ids in join order. Host election walks this order.
type Members struct {
	list []string
	info map[string]MemberInfo
}

func NewMembers() *Members {
	return &Members{
		list: make([]string, 0),
		info: make(map[string]MemberInfo),
	}
}

func (m Members) Length() int {
	return len(m.list)
}

func (m Members) IsEmpty() bool {
	return len(m.list) == 0
}

func (m Members) Has(id string) bool {
	return m.indexOf(id) >= 0
}

func (m Members) indexOf(id string) int {
	for index, memberId := range m.list {
		if memberId == id {
			return index
		}
	}

	return -1
}

// Ids returns a copy of member ids in join order.
func (m Members) Ids() []string {
	ids := make([]string, len(m.list))
	copy(ids, m.list)
	return ids
}

// First returns the earliest joined member or "" when empty.
func (m Members) First() string {
	if len(m.list) == 0 {
		return ""
	}

	return m.list[0]
}

// Add reports false when the id is already a member.
func (m *Members) Add(id string) bool {
	if m.Has(id) {
		return false
	}

	m.list = append(m.list, id)
	return true
}

// Remove drops the member and its display info.
func (m *Members) Remove(id string) bool {
	delete(m.info, id)

	index := m.indexOf(id)
	if index < 0 {
		return false
	}

	m.list = append(m.list[:index], m.list[index+1:]...)
	return true
}

func (m *Members) SetInfo(id string, info MemberInfo) {
	if info.Name == "" {
		info.Name = defaultMemberName
	}

	m.info[id] = info
}

func (m Members) Info(id string) (MemberInfo, bool) {
	info, ok := m.info[id]
	return info, ok
}

// Name returns the announced name of the member, "Anon" when it never announced.
func (m Members) Name(id string) string {
	if info, ok := m.info[id]; ok {
		return info.Name
	}

	return defaultMemberName
}

func (m Members) Participants() []Participant {
	participants := make([]Participant, 0, len(m.list))
	for _, id := range m.list {
		info, ok := m.info[id]
		if !ok {
			info = MemberInfo{Name: defaultMemberName}
		}

		participants = append(participants, Participant{
			Id:     id,
			Name:   info.Name,
			Avatar: info.Avatar,
		})
	}

	return participants
}
