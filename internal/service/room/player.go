package room

import (
	"context"

	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/connection"
)

type RelayControlParams struct {
	RoomId string
	ConnId string
	Event  domain.PlaybackEvent
}

type RelayControlResponse struct {
	Event domain.PlaybackEvent
	Conns []connection.Conn
}

// RelayControl stores the event as the room's last control and hands it back untouched
// for broadcast to every member, sender included. Any member may drive playback.
func (s *service) RelayControl(ctx context.Context, params *RelayControlParams) (RelayControlResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !params.Event.Type.IsValid() {
		return RelayControlResponse{}, ErrInvalidEvent
	}

	room, err := s.roomRepo.Get(normalizeRoomId(params.RoomId))
	if err != nil {
		return RelayControlResponse{}, ErrRoomNotFound
	}

	event := params.Event
	room.LastControl = &event

	s.logger.DebugContext(ctx, "control relayed", "room_id", room.Id, "conn_id", params.ConnId, "type", event.Type, "at", event.At)
	return RelayControlResponse{
		Event: event,
		Conns: s.getConns(room),
	}, nil
}

type RelayDirectedStateParams struct {
	SenderId string
	TargetId string
	State    domain.PlaybackEvent
}

type RelayDirectedStateResponse struct {
	State domain.PlaybackEvent
	Conn  connection.Conn
}

func (s *service) RelayDirectedState(ctx context.Context, params *RelayDirectedStateParams) (RelayDirectedStateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !params.State.Type.IsValid() {
		return RelayDirectedStateResponse{}, ErrInvalidEvent
	}

	conn, err := s.connRepo.Get(params.TargetId)
	if err != nil {
		return RelayDirectedStateResponse{}, ErrConnNotFound
	}

	s.logger.DebugContext(ctx, "state relayed", "from", params.SenderId, "to", params.TargetId, "type", params.State.Type)
	return RelayDirectedStateResponse{
		State: params.State,
		Conn:  conn,
	}, nil
}

// GetServerTime returns the server clock in epoch seconds.
func (s *service) GetServerTime() float64 {
	return s.now()
}
