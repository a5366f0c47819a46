package inmemory

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sharetube/watchparty/internal/repository/room"
)

type entry struct {
	mu     sync.Mutex
	room   room.Room
	closed bool
}

type repo struct {
	mu      sync.RWMutex
	rooms   map[string]*entry
	version atomic.Uint64
	logger  *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:  make(map[string]*entry),
		logger: logger,
	}
}

// Add stores rm under rm.Code. It fails with room.ErrRoomAlreadyExists when the
// code is taken, which lets callers retry with a fresh code.
//
// fn, when not nil, runs under the new room's lock before anyone else can see
// the room. An error from fn discards the room.
func (r *repo) Add(ctx context.Context, rm room.Room, fn func(*room.Room) error) error {
	if len(rm.Members) == 0 {
		return room.ErrMemberNotFound
	}

	r.mu.Lock()
	if _, ok := r.rooms[rm.Code]; ok {
		r.mu.Unlock()
		return room.ErrRoomAlreadyExists
	}

	e := &entry{room: rm.Clone()}
	e.room.Version = r.version.Add(1)
	// e is not reachable by other goroutines yet, so taking its lock under
	// the store lock cannot deadlock
	e.mu.Lock()
	defer e.mu.Unlock()
	r.rooms[rm.Code] = e
	r.mu.Unlock()

	if fn != nil {
		if err := fn(&e.room); err != nil {
			r.remove(e, rm.Code)
			return err
		}
	}

	r.logger.DebugContext(ctx, "room added", "room_code", rm.Code)
	return nil
}

// Update runs fn with exclusive access to the room. A room left without members
// is removed before Update returns and is never visible to later callers.
func (r *repo) Update(ctx context.Context, code string, fn func(*room.Room) error) error {
	e, err := r.lock(code)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	e.room.Version = r.version.Add(1)
	err = fn(&e.room)

	if len(e.room.Members) == 0 {
		r.remove(e, code)
		r.logger.DebugContext(ctx, "room removed", "room_code", code)
	}

	return err
}

func (r *repo) Get(_ context.Context, code string) (room.Room, error) {
	e, err := r.lock(code)
	if err != nil {
		return room.Room{}, err
	}
	defer e.mu.Unlock()

	return e.room.Clone(), nil
}

func (r *repo) List(_ context.Context) []room.Room {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.rooms))
	for _, e := range r.rooms {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	rooms := make([]room.Room, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.closed {
			rooms = append(rooms, e.room.Clone())
		}
		e.mu.Unlock()
	}

	return rooms
}

// lock returns the live entry for code with its lock held.
func (r *repo) lock(code string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.rooms[code]
	r.mu.RUnlock()
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	e.mu.Lock()
	// lost a race with the removal of the last member
	if e.closed {
		e.mu.Unlock()
		return nil, room.ErrRoomNotFound
	}

	return e, nil
}

// remove must be called with e.mu held.
func (r *repo) remove(e *entry, code string) {
	e.closed = true
	r.mu.Lock()
	if r.rooms[code] == e {
		delete(r.rooms, code)
	}
	r.mu.Unlock()
}
