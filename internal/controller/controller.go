package controller

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/repository/directory"
	"github.com/sharetube/watchparty/internal/service"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

type iRoomService interface {
	ConnectMember(context.Context, *service.ConnectMemberParams) error
	CreateRoom(context.Context, *service.CreateRoomParams) (service.CreateRoomResponse, error)
	JoinRoom(context.Context, *service.JoinRoomParams) (service.JoinRoomResponse, error)
	LeaveRoom(context.Context, *service.LeaveRoomParams) (service.LeaveRoomResponse, error)
	DisconnectMember(context.Context, *service.LeaveRoomParams) (service.LeaveRoomResponse, error)
	UpdatePlayerState(context.Context, *service.UpdatePlayerStateParams) (service.UpdatePlayerStateResponse, error)
	UpdatePlayerEpisode(context.Context, *service.UpdatePlayerEpisodeParams) (service.UpdatePlayerEpisodeResponse, error)
	SendChatMessage(context.Context, *service.SendChatMessageParams) (service.SendChatMessageResponse, error)
	ListRooms(context.Context) []service.RoomSummary
}

// iDirectory reads the room summaries mirrored to redis.
type iDirectory interface {
	List(context.Context) ([]directory.Summary, error)
	Get(ctx context.Context, roomCode string) (directory.Summary, error)
}

type Config struct {
	// AllowedOrigins lists origins allowed to open sockets and call the API. "*" allows any origin.
	AllowedOrigins []string
	// Directory is optional; without it the directory routes answer 404.
	Directory iDirectory
}

type controller struct {
	roomService    iRoomService
	directory      iDirectory
	upgrader       websocket.Upgrader
	wsmux          *wsrouter.WSRouter
	allowedOrigins []string
	logger         *slog.Logger
}

func NewController(roomService iRoomService, cfg *Config, logger *slog.Logger) *controller {
	c := &controller{
		roomService:    roomService,
		directory:      cfg.Directory,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger,
	}
	c.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     c.checkOrigin,
	}
	c.wsmux = c.getWSRouter()

	return c
}

func (c *controller) allowsAnyOrigin() bool {
	return len(c.allowedOrigins) == 0 || slices.Contains(c.allowedOrigins, "*")
}

func (c *controller) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || c.allowsAnyOrigin() {
		return true
	}

	return slices.ContainsFunc(c.allowedOrigins, func(allowed string) bool {
		return strings.EqualFold(allowed, origin)
	})
}
