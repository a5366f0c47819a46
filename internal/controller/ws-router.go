package controller

import (
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdMw(), c.loggerWSMw())
	mux.OnError(c.handleWSError)

	wsrouter.Handle(mux, "alive", c.handleAlive)

	// room
	wsrouter.Handle(mux, "createRoom", c.handleCreateRoom)
	wsrouter.Handle(mux, "joinRoom", c.handleJoinRoom)
	wsrouter.Handle(mux, "leaveRoom", c.handleLeaveRoom)

	// player
	wsrouter.Handle(mux, "videoAction", c.handleVideoAction)
	wsrouter.Handle(mux, "episodeChange", c.handleEpisodeChange)

	// chat
	wsrouter.Handle(mux, "chatMessage", c.handleChatMessage)

	return mux
}
