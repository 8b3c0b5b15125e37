package inmemory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/chat"
)

type repo struct {
	history map[string][]domain.ChatMessage
	limit   int
	mu      sync.RWMutex
	logger  *slog.Logger
}

func NewRepo(limit int, logger *slog.Logger) *repo {
	return &repo{
		history: make(map[string][]domain.ChatMessage),
		limit:   limit,
		logger:  logger,
	}
}

func (r *repo) Append(ctx context.Context, roomId string, msg domain.ChatMessage) error {
	if roomId == "" {
		return chat.ErrEmptyRoomId
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	messages := append(r.history[roomId], msg)
	if r.limit > 0 && len(messages) > r.limit {
		// evict oldest first
		messages = append([]domain.ChatMessage(nil), messages[len(messages)-r.limit:]...)
	}
	r.history[roomId] = messages

	r.logger.DebugContext(ctx, "chat.inmemory.Append", "room_id", roomId, "length", len(messages))
	return nil
}

func (r *repo) List(_ context.Context, roomId string) ([]domain.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := make([]domain.ChatMessage, len(r.history[roomId]))
	copy(messages, r.history[roomId])

	return messages, nil
}

func (r *repo) Delete(ctx context.Context, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.history, roomId)
	r.logger.DebugContext(ctx, "chat.inmemory.Delete", "room_id", roomId)

	return nil
}
