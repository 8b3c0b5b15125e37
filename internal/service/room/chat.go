package room

import (
	"context"
	"fmt"

	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/connection"
)

type SendChatMessageParams struct {
	RoomId string
	ConnId string
	Text   string
	Name   string
	At     float64
	Avatar *string
}

type SendChatMessageResponse struct {
	Message domain.ChatMessage
	Conns   []connection.Conn
}

func (s *service) SendChatMessage(ctx context.Context, params *SendChatMessageParams) (SendChatMessageResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomId := normalizeRoomId(params.RoomId)
	if roomId == "" {
		return SendChatMessageResponse{}, ErrEmptyRoomId
	}

	room, created := s.roomRepo.GetOrCreate(roomId)
	defer s.dropIfEmpty(ctx, room, created)

	name := params.Name
	if name == "" {
		name = room.Members.Name(params.ConnId)
	}

	at := params.At
	if at == 0 {
		at = s.now()
	}

	msg := domain.ChatMessage{
		Text:   params.Text,
		Name:   name,
		At:     at,
		Avatar: params.Avatar,
		From:   params.ConnId,
	}
	if err := s.chatRepo.Append(ctx, roomId, msg); err != nil {
		return SendChatMessageResponse{}, fmt.Errorf("failed to append chat message: %w", err)
	}

	return SendChatMessageResponse{
		Message: msg,
		Conns:   s.getConns(room),
	}, nil
}
