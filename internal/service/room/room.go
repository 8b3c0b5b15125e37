package room

import (
	"context"
	"fmt"

	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/connection"
)

type ConnectMemberParams struct {
	Conn connection.Conn
}

func (s *service) ConnectMember(ctx context.Context, params *ConnectMemberParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connRepo.Add(params.Conn); err != nil {
		return fmt.Errorf("failed to add conn: %w", err)
	}

	s.logger.DebugContext(ctx, "member connected", "conn_id", params.Conn.Id())
	return nil
}

type LeaveRoomResponse struct {
	RoomId       string
	Deleted      bool
	NewHostConn  connection.Conn
	Participants Participants
	Conns        []connection.Conn
}

func (s *service) leaveRoom(ctx context.Context, room *domain.Room, connId string) LeaveRoomResponse {
	newHost, _ := room.RemoveMember(connId)
	if room.Members.IsEmpty() {
		s.deleteRoom(ctx, room.Id)
		return LeaveRoomResponse{
			RoomId:  room.Id,
			Deleted: true,
		}
	}

	var newHostConn connection.Conn
	if newHost != "" {
		s.logger.InfoContext(ctx, "host elected", "room_id", room.Id, "host", newHost)
		conn, err := s.connRepo.Get(newHost)
		if err != nil {
			s.logger.WarnContext(ctx, "new host has no connection", "room_id", room.Id, "host", newHost)
		} else {
			newHostConn = conn
		}
	}

	return LeaveRoomResponse{
		RoomId:       room.Id,
		NewHostConn:  newHostConn,
		Participants: s.getParticipants(room),
		Conns:        s.getConns(room),
	}
}

type DisconnectMemberParams struct {
	ConnId string
}

type DisconnectMemberResponse struct {
	Left []LeaveRoomResponse
}

// DisconnectMember forgets the connection and leaves every room it was a member of.
func (s *service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) (DisconnectMemberResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.connRepo.Remove(params.ConnId); err != nil {
		s.logger.DebugContext(ctx, "failed to remove conn", "conn_id", params.ConnId, "error", err)
	}

	left := make([]LeaveRoomResponse, 0)
	for _, room := range s.roomRepo.List() {
		if room.Members.Has(params.ConnId) {
			left = append(left, s.leaveRoom(ctx, room, params.ConnId))
		}
	}

	s.logger.DebugContext(ctx, "member disconnected", "conn_id", params.ConnId, "rooms_left", len(left))
	return DisconnectMemberResponse{
		Left: left,
	}, nil
}

type LeaveRoomParams struct {
	RoomId string
	ConnId string
}

func (s *service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomRepo.Get(normalizeRoomId(params.RoomId))
	if err != nil {
		return LeaveRoomResponse{}, ErrRoomNotFound
	}

	if !room.Members.Has(params.ConnId) {
		return LeaveRoomResponse{}, ErrNotMember
	}

	return s.leaveRoom(ctx, room, params.ConnId), nil
}

type CreateRoomParams struct {
	RoomId   string
	Settings domain.SettingsPatch
	ConnId   string
}

type CreateRoomResponse struct {
	RoomId       string
	Settings     domain.Settings
	ChatHistory  []domain.ChatMessage
	Participants Participants
	Conns        []connection.Conn
}

// CreateRoom makes the requester host of the room, creating it when absent. An existing
// room keeps its members and queue but gets the new host and settings.
func (s *service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomId := normalizeRoomId(params.RoomId)
	if roomId == "" {
		return CreateRoomResponse{}, ErrEmptyRoomId
	}

	room, created := s.roomRepo.GetOrCreate(roomId)
	if !room.Members.Has(params.ConnId) && s.membersLimit > 0 && room.Members.Length() >= s.membersLimit {
		return CreateRoomResponse{}, ErrRoomFull
	}

	room.Host = params.ConnId
	room.Settings = domain.SettingsFromPatch(params.Settings)
	room.Members.Add(params.ConnId)

	s.logger.InfoContext(ctx, "room created", "room_id", roomId, "host", params.ConnId, "recreated", !created)
	return CreateRoomResponse{
		RoomId:       roomId,
		Settings:     room.Settings,
		ChatHistory:  s.getChatHistory(ctx, roomId),
		Participants: s.getParticipants(room),
		Conns:        s.getConns(room),
	}, nil
}

type JoinRoomParams struct {
	RoomId   string
	Password *string
	ConnId   string
}

type JoinRoomResponse struct {
	RoomId string
	// IsHost is set when the room had no host and the joiner took it.
	IsHost bool
	// HostConn is asked to push its playback state to the joiner. Nil when IsHost.
	HostConn      connection.Conn
	// LastControl stands in for the host's state when the host could not be asked.
	LastControl   *domain.PlaybackEvent
	Settings      domain.Settings
	CurrentSource string
	ChatHistory   []domain.ChatMessage
	Participants  Participants
	Conns         []connection.Conn
}

func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomId := normalizeRoomId(params.RoomId)
	if roomId == "" {
		return JoinRoomResponse{}, ErrEmptyRoomId
	}

	room, created := s.roomRepo.GetOrCreate(roomId)
	if !room.Settings.CheckPassword(params.Password) {
		s.dropIfEmpty(ctx, room, created)
		return JoinRoomResponse{}, ErrIncorrectPassword
	}

	if !room.Members.Has(params.ConnId) && s.membersLimit > 0 && room.Members.Length() >= s.membersLimit {
		s.dropIfEmpty(ctx, room, created)
		return JoinRoomResponse{}, ErrRoomFull
	}

	room.Members.Add(params.ConnId)

	resp := JoinRoomResponse{
		RoomId:        roomId,
		Settings:      room.Settings,
		CurrentSource: room.CurrentSource,
	}

	if !room.HasHost() {
		room.Host = params.ConnId
		resp.IsHost = true
		s.logger.InfoContext(ctx, "host elected", "room_id", roomId, "host", params.ConnId)
	} else if !room.IsHost(params.ConnId) {
		hostConn, err := s.connRepo.Get(room.Host)
		if err != nil {
			s.logger.WarnContext(ctx, "host has no connection", "room_id", roomId, "host", room.Host)
			if room.LastControl != nil {
				lastControl := *room.LastControl
				resp.LastControl = &lastControl
			}
		} else {
			resp.HostConn = hostConn
		}
	}

	resp.ChatHistory = s.getChatHistory(ctx, roomId)
	resp.Participants = s.getParticipants(room)
	resp.Conns = s.getConns(room)

	s.logger.InfoContext(ctx, "member joined", "room_id", roomId, "conn_id", params.ConnId, "members", room.Members.Length())
	return resp, nil
}

type AnnounceParams struct {
	RoomId string
	ConnId string
	Name   string
	Avatar *string
}

type AnnounceResponse struct {
	Participants Participants
	Conns        []connection.Conn
}

func (s *service) Announce(ctx context.Context, params *AnnounceParams) (AnnounceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomId := normalizeRoomId(params.RoomId)
	if roomId == "" {
		return AnnounceResponse{}, ErrEmptyRoomId
	}

	room, created := s.roomRepo.GetOrCreate(roomId)
	defer s.dropIfEmpty(ctx, room, created)

	room.Members.SetInfo(params.ConnId, domain.MemberInfo{
		Name:   params.Name,
		Avatar: params.Avatar,
	})

	return AnnounceResponse{
		Participants: s.getParticipants(room),
		Conns:        s.getConns(room),
	}, nil
}

type UpdateSettingsParams struct {
	RoomId string
	ConnId string
	Patch  domain.SettingsPatch
}

type UpdateSettingsResponse struct {
	Settings     domain.Settings
	Participants Participants
	Conns        []connection.Conn
}

func (s *service) UpdateSettings(ctx context.Context, params *UpdateSettingsParams) (UpdateSettingsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomRepo.Get(normalizeRoomId(params.RoomId))
	if err != nil {
		return UpdateSettingsResponse{}, ErrRoomNotFound
	}

	if err := s.checkIfMemberAllowed(room, params.ConnId, domain.ActionUpdateSettings, "only host can update settings"); err != nil {
		return UpdateSettingsResponse{}, err
	}

	room.Settings = room.Settings.Merge(params.Patch)

	s.logger.InfoContext(ctx, "room settings updated", "room_id", room.Id, "allow_upload", room.Settings.AllowUpload, "has_password", room.Settings.HasPassword())
	return UpdateSettingsResponse{
		Settings:     room.Settings,
		Participants: s.getParticipants(room),
		Conns:        s.getConns(room),
	}, nil
}

type SetSourceParams struct {
	RoomId string
	ConnId string
	URL    string
}

type SetSourceResponse struct {
	URL   string
	Conns []connection.Conn
}

func (s *service) SetSource(ctx context.Context, params *SetSourceParams) (SetSourceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomRepo.Get(normalizeRoomId(params.RoomId))
	if err != nil {
		return SetSourceResponse{}, ErrRoomNotFound
	}

	if err := s.checkIfMemberAllowed(room, params.ConnId, domain.ActionChangeSource, "not allowed to set video source"); err != nil {
		return SetSourceResponse{}, err
	}

	if params.URL == "" {
		return SetSourceResponse{}, ErrMissingUrl
	}

	room.CurrentSource = params.URL

	s.logger.InfoContext(ctx, "source set", "room_id", room.Id, "conn_id", params.ConnId, "url", params.URL)
	return SetSourceResponse{
		URL:   params.URL,
		Conns: s.getConns(room),
	}, nil
}

func (s *service) GetRoomsSummary(ctx context.Context) []RoomSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := s.roomRepo.List()
	summary := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		var host, source *string
		if room.HasHost() {
			h := room.Host
			host = &h
		}
		if room.CurrentSource != "" {
			src := room.CurrentSource
			source = &src
		}

		summary = append(summary, RoomSummary{
			Id:    room.Id,
			Host:  host,
			Count: room.Members.Length(),
			Settings: RoomSettingsSummary{
				HasPassword: room.Settings.HasPassword(),
				AllowUpload: room.Settings.AllowUpload,
			},
			Source:   source,
			Queue:    room.Queue.Length(),
			Messages: len(s.getChatHistory(ctx, room.Id)),
		})
	}

	return summary
}

// GenerateRoomId returns an id no live room uses.
func (s *service) GenerateRoomId(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for range 10 {
		roomId := s.generator.GenerateRandomString(s.roomIdLength)
		if !s.roomRepo.Exists(roomId) {
			return roomId, nil
		}
	}

	s.logger.WarnContext(ctx, "room id space exhausted", "length", s.roomIdLength)
	return "", ErrRoomIdNotGenerated
}
