package inmemory

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/sharetube/watchtogether/internal/repository/connection"
)

type repo struct {
	conns  map[string]connection.Conn
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		conns:  make(map[string]connection.Conn),
		logger: logger,
	}
}

func (r *repo) Add(conn connection.Conn) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", conn.Id())
	if _, ok := r.conns[conn.Id()]; ok {
		r.logger.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.conns[conn.Id()] = conn

	r.logger.Debug(funcName, "result", "OK")
	return nil
}

func (r *repo) Remove(connId string) (connection.Conn, error) {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", connId)
	conn, ok := r.conns[connId]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	delete(r.conns, connId)

	r.logger.Debug(funcName, "result", "OK")
	return conn, nil
}

func (r *repo) Get(connId string) (connection.Conn, error) {
	funcName := "connection.inmemory.Get"
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.logger.Debug(funcName, "conn_id", connId)
	conn, ok := r.conns[connId]
	if !ok {
		r.logger.Debug(funcName, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

// GetMany skips ids without a live connection.
func (r *repo) GetMany(connIds []string) []connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]connection.Conn, 0, len(connIds))
	for _, connId := range connIds {
		if conn, ok := r.conns[connId]; ok {
			conns = append(conns, conn)
		}
	}

	return conns
}

func (r *repo) Ids() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}
