package room

import (
	"context"
	"fmt"

	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/connection"
)

type EnqueueParams struct {
	RoomId     string
	ConnId     string
	URL        string
	Title      string
	UploadedBy string
}

type EnqueueResponse struct {
	AddedItem domain.QueueItem
	Queue     []domain.QueueItem
	Conns     []connection.Conn
}

func (s *service) Enqueue(ctx context.Context, params *EnqueueParams) (EnqueueResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomId := normalizeRoomId(params.RoomId)
	if roomId == "" {
		return EnqueueResponse{}, ErrEmptyRoomId
	}

	if params.URL == "" {
		return EnqueueResponse{}, ErrMissingUrl
	}

	room, created := s.roomRepo.GetOrCreate(roomId)
	defer s.dropIfEmpty(ctx, room, created)

	uploadedBy := params.UploadedBy
	if uploadedBy == "" {
		uploadedBy = room.Members.Name(params.ConnId)
	}

	item := domain.QueueItem{
		URL:        params.URL,
		Title:      params.Title,
		UploadedBy: uploadedBy,
		EnqueuedAt: s.now(),
	}
	if err := room.Queue.Push(item); err != nil {
		return EnqueueResponse{}, fmt.Errorf("failed to enqueue: %w", err)
	}

	s.logger.InfoContext(ctx, "item enqueued", "room_id", roomId, "url", item.URL, "length", room.Queue.Length())
	return EnqueueResponse{
		AddedItem: item,
		Queue:     room.Queue.AsList(),
		Conns:     s.getConns(room),
	}, nil
}

type ReorderQueueParams struct {
	RoomId   string
	ConnId   string
	NewOrder []domain.QueueItem
}

type QueueResponse struct {
	Queue []domain.QueueItem
	Conns []connection.Conn
}

// ReorderQueue replaces the queue wholesale with the host supplied order. Unless strict
// reordering is on, the new order is trusted as is.
func (s *service) ReorderQueue(ctx context.Context, params *ReorderQueueParams) (QueueResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomRepo.Get(normalizeRoomId(params.RoomId))
	if err != nil {
		return QueueResponse{}, ErrRoomNotFound
	}

	if err := s.checkIfMemberAllowed(room, params.ConnId, domain.ActionEditQueue, "only host can reorder queue"); err != nil {
		return QueueResponse{}, err
	}

	if s.strictReorder && !room.Queue.IsPermutationOf(params.NewOrder) {
		return QueueResponse{}, ErrInvalidOrder
	}

	room.Queue.Replace(params.NewOrder)

	s.logger.DebugContext(ctx, "queue reordered", "room_id", room.Id, "length", room.Queue.Length())
	return QueueResponse{
		Queue: room.Queue.AsList(),
		Conns: s.getConns(room),
	}, nil
}

type RemoveFromQueueParams struct {
	RoomId string
	ConnId string
	Index  int
}

type RemoveFromQueueResponse struct {
	// Removed is false for an out of range index; nothing is broadcast then.
	Removed bool
	Queue   []domain.QueueItem
	Conns   []connection.Conn
}

func (s *service) RemoveFromQueue(ctx context.Context, params *RemoveFromQueueParams) (RemoveFromQueueResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomRepo.Get(normalizeRoomId(params.RoomId))
	if err != nil {
		return RemoveFromQueueResponse{}, ErrRoomNotFound
	}

	if err := s.checkIfMemberAllowed(room, params.ConnId, domain.ActionEditQueue, "only host can remove items"); err != nil {
		return RemoveFromQueueResponse{}, err
	}

	if _, ok := room.Queue.RemoveAt(params.Index); !ok {
		s.logger.DebugContext(ctx, "queue index out of range", "room_id", room.Id, "index", params.Index, "length", room.Queue.Length())
		return RemoveFromQueueResponse{}, nil
	}

	return RemoveFromQueueResponse{
		Removed: true,
		Queue:   room.Queue.AsList(),
		Conns:   s.getConns(room),
	}, nil
}

type AdvanceParams struct {
	RoomId string
	ConnId string
}

type AdvanceResponse struct {
	// Advanced is false when the queue was empty; Source is unset then.
	Advanced bool
	Source   string
	Queue    []domain.QueueItem
	Conns    []connection.Conn
}

// Advance pops the front of the queue into the current source. Anyone may call it.
func (s *service) Advance(ctx context.Context, params *AdvanceParams) (AdvanceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomRepo.Get(normalizeRoomId(params.RoomId))
	if err != nil {
		return AdvanceResponse{}, ErrRoomNotFound
	}

	item, ok := room.Queue.PopFront()
	if !ok {
		return AdvanceResponse{
			Queue: room.Queue.AsList(),
			Conns: s.getConns(room),
		}, nil
	}

	room.CurrentSource = item.URL

	s.logger.InfoContext(ctx, "queue advanced", "room_id", room.Id, "conn_id", params.ConnId, "url", item.URL)
	return AdvanceResponse{
		Advanced: true,
		Source:   item.URL,
		Queue:    room.Queue.AsList(),
		Conns:    s.getConns(room),
	}, nil
}

// RequestQueue never creates a room; unknown rooms have an empty queue.
func (s *service) RequestQueue(_ context.Context, roomId string) []domain.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomRepo.Get(normalizeRoomId(roomId))
	if err != nil {
		return []domain.QueueItem{}
	}

	return room.Queue.AsList()
}
