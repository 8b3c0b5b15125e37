package room

import (
	"context"
	"strings"

	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/connection"
)

func normalizeRoomId(roomId string) string {
	return strings.ToLower(strings.TrimSpace(roomId))
}

func (s *service) now() float64 {
	return domain.EpochSeconds(s.clock.Now())
}

func (s *service) getConns(room *domain.Room) []connection.Conn {
	return s.connRepo.GetMany(room.Members.Ids())
}

func (s *service) getParticipants(room *domain.Room) Participants {
	return Participants{
		Count: room.Members.Length(),
		List:  room.Members.Participants(),
	}
}

func (s *service) getChatHistory(ctx context.Context, roomId string) []domain.ChatMessage {
	history, err := s.chatRepo.List(ctx, roomId)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to get chat history", "room_id", roomId, "error", err)
		return []domain.ChatMessage{}
	}

	return history
}

func (s *service) deleteRoom(ctx context.Context, roomId string) {
	if err := s.roomRepo.Delete(roomId); err != nil {
		s.logger.DebugContext(ctx, "failed to delete room", "room_id", roomId, "error", err)
	}

	if err := s.chatRepo.Delete(ctx, roomId); err != nil {
		s.logger.WarnContext(ctx, "failed to delete chat history", "room_id", roomId, "error", err)
	}

	s.logger.InfoContext(ctx, "room deleted", "room_id", roomId)
}

// dropIfEmpty removes a room that a non-membership operation created and nobody joined.
func (s *service) dropIfEmpty(ctx context.Context, room *domain.Room, created bool) {
	if created && room.Members.IsEmpty() {
		s.deleteRoom(ctx, room.Id)
	}
}

// checkIfMemberAllowed rejects with not_allowed for actions members may be granted, and
// with not_host for host-only actions.
func (s *service) checkIfMemberAllowed(room *domain.Room, connId string, action domain.Action, message string) error {
	if room.IsAllowed(connId, action) {
		return nil
	}

	if action == domain.ActionChangeSource {
		return newAuthError(ReasonNotAllowed, message)
	}

	return newAuthError(ReasonNotHost, message)
}
