package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/repository/directory"
	"github.com/sharetube/watchparty/internal/repository/room"
	"github.com/sharetube/watchparty/pkg/randstr"
)

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrNotInRoom         = errors.New("not in a room")
	ErrEmptyMessage      = errors.New("empty message")
	ErrRoomCodeExhausted = errors.New("failed to generate unique room code")
)

const (
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	RoomCodeLength   = 6
	DefaultNickname  = "Anonymous"

	maxRoomCodeAttempts = 100
	maxNicknameLength   = 32
)

type iRoomRepo interface {
	Add(ctx context.Context, rm room.Room, fn func(*room.Room) error) error
	Update(ctx context.Context, code string, fn func(*room.Room) error) error
	Get(context.Context, string) (room.Room, error)
	List(context.Context) []room.Room
}

type iConnRepo interface {
	Add(connection.Conn, string) error
	Bind(connId, roomCode, nickname string) error
	Unbind(string) (string, error)
	Remove(string) (connection.Entry, error)
	Get(string) (connection.Entry, error)
	GetRoomCode(string) (string, error)
	GetConns([]string) []connection.Conn
}

type iDirectory interface {
	Publish(context.Context, *directory.Summary) error
	Remove(ctx context.Context, roomCode string, version uint64) error
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type service struct {
	roomRepo     iRoomRepo
	connRepo     iConnRepo
	directory    iDirectory
	generator    iGenerator
	membersLimit int
	logger       *slog.Logger
}

type Config struct {
	MembersLimit int
	// Directory is optional; rooms are not mirrored anywhere when it is nil.
	Directory iDirectory
}

func New(roomRepo iRoomRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	var dir iDirectory = nopDirectory{}
	if cfg.Directory != nil {
		dir = cfg.Directory
	}

	return &service{
		roomRepo:     roomRepo,
		connRepo:     connRepo,
		directory:    dir,
		generator:    randstr.New([]byte(RoomCodeAlphabet)),
		membersLimit: cfg.MembersLimit,
		logger:       logger,
	}
}

type nopDirectory struct{}

func (nopDirectory) Publish(context.Context, *directory.Summary) error { return nil }

func (nopDirectory) Remove(context.Context, string, uint64) error { return nil }
