package domain

import (
	"errors"
)

var ErrQueueLimitReached = errors.New("queue limit reached")

type QueueItem struct {
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	UploadedBy string  `json:"uploaded_by"`
	EnqueuedAt float64 `json:"enqueued_at"`
}

// Queue is the authoritative play order of a room. Items are never mutated in place.
type Queue struct {
	list  []QueueItem
	limit int
}

// NewQueue creates an empty queue. limit <= 0 means unlimited.
func NewQueue(limit int) *Queue {
	return &Queue{
		list:  make([]QueueItem, 0),
		limit: limit,
	}
}

// AsList returns a copy so callers can broadcast it after the room lock is released.
func (q Queue) AsList() []QueueItem {
	list := make([]QueueItem, len(q.list))
	copy(list, q.list)
	return list
}

func (q Queue) Length() int {
	return len(q.list)
}

func (q *Queue) Push(item QueueItem) error {
	if q.limit > 0 && len(q.list) >= q.limit {
		return ErrQueueLimitReached
	}

	q.list = append(q.list, item)
	return nil
}

func (q *Queue) Replace(items []QueueItem) {
	list := make([]QueueItem, len(items))
	copy(list, items)
	q.list = list
}

// RemoveAt reports false for an out of range index and leaves the queue untouched.
func (q *Queue) RemoveAt(index int) (QueueItem, bool) {
	if index < 0 || index >= len(q.list) {
		return QueueItem{}, false
	}

	item := q.list[index]
	q.list = append(q.list[:index:index], q.list[index+1:]...)
	return item, true
}

func (q *Queue) PopFront() (QueueItem, bool) {
	if len(q.list) == 0 {
		return QueueItem{}, false
	}

	item := q.list[0]
	q.list = q.list[1:]
	return item, true
}

// IsPermutationOf reports whether items holds exactly the queue items as a multiset.
func (q Queue) IsPermutationOf(items []QueueItem) bool {
	if len(items) != len(q.list) {
		return false
	}

	counts := make(map[QueueItem]int, len(q.list))
	for _, item := range q.list {
		counts[item]++
	}

	for _, item := range items {
		if counts[item] == 0 {
			return false
		}
		counts[item]--
	}

	return true
}
