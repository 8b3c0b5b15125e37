package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/chat"
)

// repo keeps chat history in a capped redis list per room. Keys expire so a crashed
// process does not leave history behind; rooms are not restored across restarts.
type repo struct {
	rc             *redis.Client
	limit          int
	expireDuration time.Duration
	logger         *slog.Logger
}

func NewRepo(rc *redis.Client, limit int, expireDuration time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:             rc,
		limit:          limit,
		expireDuration: expireDuration,
		logger:         logger,
	}
}

func (r repo) getChatKey(roomId string) string {
	return "room:" + roomId + ":chat"
}

func (r repo) Append(ctx context.Context, roomId string, msg domain.ChatMessage) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId, "from", msg.From)
	if roomId == "" {
		return chat.ErrEmptyRoomId
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	key := r.getChatKey(roomId)
	pipe := r.rc.TxPipeline()
	pipe.RPush(ctx, key, data)
	if r.limit > 0 {
		pipe.LTrim(ctx, key, int64(-r.limit), -1)
	}
	pipe.Expire(ctx, key, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	return nil
}

func (r repo) List(ctx context.Context, roomId string) ([]domain.ChatMessage, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	raw, err := r.rc.LRange(ctx, r.getChatKey(roomId), 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}

	messages := make([]domain.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			r.logger.WarnContext(ctx, "skipping malformed chat message", "room_id", roomId, "error", err)
			continue
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

func (r repo) Delete(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	if err := r.rc.Del(ctx, r.getChatKey(roomId)).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to delete chat history: %w", err)
	}

	return nil
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}
