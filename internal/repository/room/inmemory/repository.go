package inmemory

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/room"
)

// repo is the process-wide room table. It is constructed by the app and injected,
// never reached through a package variable.
type repo struct {
	rooms      map[string]*domain.Room
	queueLimit int
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewRepo(queueLimit int, logger *slog.Logger) *repo {
	return &repo{
		rooms:      make(map[string]*domain.Room),
		queueLimit: queueLimit,
		logger:     logger,
	}
}

func (r *repo) Get(roomId string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomId]
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	return rm, nil
}

// GetOrCreate returns the room, creating it with default settings when absent.
// The bool reports whether the room was created by this call.
func (r *repo) GetOrCreate(roomId string) (*domain.Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rm, ok := r.rooms[roomId]; ok {
		return rm, false
	}

	rm := domain.NewRoom(roomId, r.queueLimit)
	r.rooms[roomId] = rm
	r.logger.Debug("room.inmemory.GetOrCreate", "room_id", roomId, "result", "created")

	return rm, true
}

func (r *repo) Exists(roomId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[roomId]
	return ok
}

func (r *repo) Delete(roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomId]; !ok {
		return room.ErrRoomNotFound
	}

	delete(r.rooms, roomId)
	r.logger.Debug("room.inmemory.Delete", "room_id", roomId)

	return nil
}

// List returns rooms sorted by id.
func (r *repo) List() []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]*domain.Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].Id < rooms[j].Id
	})

	return rooms
}
