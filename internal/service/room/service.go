package room

import (
	"context"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/connection"
	"github.com/sharetube/watchtogether/pkg/randstr"
)

const (
	roomIdAlphabet      = "abcdefghjkmnpqrstuvwxyz23456789"
	defaultRoomIdLength = 6
)

type iRoomRepo interface {
	Get(roomId string) (*domain.Room, error)
	GetOrCreate(roomId string) (*domain.Room, bool)
	Exists(roomId string) bool
	Delete(roomId string) error
	List() []*domain.Room
}

type iConnRepo interface {
	Add(conn connection.Conn) error
	Remove(connId string) (connection.Conn, error)
	Get(connId string) (connection.Conn, error)
	GetMany(connIds []string) []connection.Conn
}

type iChatRepo interface {
	Append(ctx context.Context, roomId string, msg domain.ChatMessage) error
	List(ctx context.Context, roomId string) ([]domain.ChatMessage, error)
	Delete(ctx context.Context, roomId string) error
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	// MembersLimit <= 0 means unlimited.
	MembersLimit int
	// StrictReorder rejects reorders that are not a permutation of the current queue.
	StrictReorder bool
	RoomIdLength  int
}

// service owns every room mutation. Each exported operation runs under mu, so a
// message is applied to room state as a whole before the next one is looked at.
type service struct {
	roomRepo  iRoomRepo
	connRepo  iConnRepo
	chatRepo  iChatRepo
	generator iGenerator
	clock     clock.Clock
	logger    *slog.Logger
	mu        sync.Mutex

	membersLimit  int
	strictReorder bool
	roomIdLength  int
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, chatRepo iChatRepo, cfg *Config, clk clock.Clock, logger *slog.Logger) *service {
	roomIdLength := cfg.RoomIdLength
	if roomIdLength <= 0 {
		roomIdLength = defaultRoomIdLength
	}

	return &service{
		roomRepo:      roomRepo,
		connRepo:      connRepo,
		chatRepo:      chatRepo,
		generator:     randstr.New([]byte(roomIdAlphabet)),
		clock:         clk,
		logger:        logger,
		membersLimit:  cfg.MembersLimit,
		strictReorder: cfg.StrictReorder,
		roomIdLength:  roomIdLength,
	}
}
