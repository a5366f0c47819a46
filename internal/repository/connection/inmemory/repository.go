package inmemory

import (
	"log/slog"
	"sync"

	"github.com/sharetube/watchparty/internal/repository/connection"
)

type repo struct {
	entries map[string]*connection.Entry
	mu      sync.RWMutex
	logger  *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		entries: make(map[string]*connection.Entry),
		logger:  logger,
	}
}

func (r *repo) Add(conn connection.Conn, connId string) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[connId]; ok {
		r.logger.Info(funcName, "conn_id", connId, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.entries[connId] = &connection.Entry{Id: connId, Conn: conn}

	r.logger.Debug(funcName, "conn_id", connId)
	return nil
}

// Bind associates connId with a room and caches the member nickname.
func (r *repo) Bind(connId, roomCode, nickname string) error {
	funcName := "connection.inmemory.Bind"
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[connId]
	if !ok {
		r.logger.Info(funcName, "conn_id", connId, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	e.RoomCode = roomCode
	e.Nickname = nickname

	r.logger.Debug(funcName, "conn_id", connId, "room_code", roomCode)
	return nil
}

// Unbind clears the room association and returns the room code it held.
// The connection itself stays registered.
func (r *repo) Unbind(connId string) (string, error) {
	funcName := "connection.inmemory.Unbind"
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[connId]
	if !ok {
		return "", connection.ErrNotFound
	}

	roomCode := e.RoomCode
	e.RoomCode = ""
	e.Nickname = ""

	r.logger.Debug(funcName, "conn_id", connId, "room_code", roomCode)
	return roomCode, nil
}

// Remove forgets connId and returns its last entry.
func (r *repo) Remove(connId string) (connection.Entry, error) {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[connId]
	if !ok {
		return connection.Entry{}, connection.ErrNotFound
	}

	delete(r.entries, connId)

	r.logger.Debug(funcName, "conn_id", connId)
	return *e, nil
}

func (r *repo) Get(connId string) (connection.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[connId]
	if !ok {
		return connection.Entry{}, connection.ErrNotFound
	}

	return *e, nil
}

// GetRoomCode returns connection.ErrNotInRoom for a registered connection
// that is not bound to any room.
func (r *repo) GetRoomCode(connId string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[connId]
	if !ok {
		return "", connection.ErrNotFound
	}

	if e.RoomCode == "" {
		return "", connection.ErrNotInRoom
	}

	return e.RoomCode, nil
}

// GetConns resolves connIds to their connections, skipping ids that are gone.
func (r *repo) GetConns(connIds []string) []connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]connection.Conn, 0, len(connIds))
	for _, id := range connIds {
		if e, ok := r.entries[id]; ok {
			conns = append(conns, e.Conn)
		}
	}

	return conns
}
