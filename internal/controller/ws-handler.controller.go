package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/watchparty/internal/service"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

// Replies and broadcasts are queued by the service while the room is locked;
// handlers only write roomError themselves.

type EmptyInput struct{}

func (c *controller) handleAlive(_ context.Context, _ wsrouter.Conn, _ EmptyInput) error {
	return nil
}

type CreateRoomInput struct {
	Nickname string `json:"nickname"`
}

func (c *controller) handleCreateRoom(ctx context.Context, _ wsrouter.Conn, input CreateRoomInput) error {
	if _, err := c.roomService.CreateRoom(ctx, &service.CreateRoomParams{
		ConnId:   c.getConnIdFromCtx(ctx),
		Nickname: input.Nickname,
	}); err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

type JoinRoomInput struct {
	RoomCode string `json:"roomCode"`
	Nickname string `json:"nickname"`
}

func (c *controller) handleJoinRoom(ctx context.Context, conn wsrouter.Conn, input JoinRoomInput) error {
	_, err := c.roomService.JoinRoom(ctx, &service.JoinRoomParams{
		ConnId:   c.getConnIdFromCtx(ctx),
		RoomCode: input.RoomCode,
		Nickname: input.Nickname,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrRoomNotFound):
		return c.writeRoomError(ctx, conn, "Room not found")
	case errors.Is(err, service.ErrRoomFull):
		return c.writeRoomError(ctx, conn, "Room is full")
	default:
		return fmt.Errorf("failed to join room: %w", err)
	}
}

func (c *controller) handleLeaveRoom(ctx context.Context, _ wsrouter.Conn, _ EmptyInput) error {
	if _, err := c.roomService.LeaveRoom(ctx, &service.LeaveRoomParams{
		ConnId: c.getConnIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return nil
}

type VideoActionInput struct {
	Action string  `json:"action"`
	Time   float64 `json:"time"`
}

func (c *controller) handleVideoAction(ctx context.Context, _ wsrouter.Conn, input VideoActionInput) error {
	if _, err := c.roomService.UpdatePlayerState(ctx, &service.UpdatePlayerStateParams{
		Action:      input.Action,
		CurrentTime: input.Time,
		SenderId:    c.getConnIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to update player state: %w", err)
	}

	return nil
}

type EpisodeChangeInput struct {
	EpisodeId string `json:"episodeId"`
}

func (c *controller) handleEpisodeChange(ctx context.Context, _ wsrouter.Conn, input EpisodeChangeInput) error {
	if _, err := c.roomService.UpdatePlayerEpisode(ctx, &service.UpdatePlayerEpisodeParams{
		EpisodeId: input.EpisodeId,
		SenderId:  c.getConnIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to update player episode: %w", err)
	}

	return nil
}

type ChatMessageInput struct {
	Message string `json:"message"`
}

func (c *controller) handleChatMessage(ctx context.Context, _ wsrouter.Conn, input ChatMessageInput) error {
	if _, err := c.roomService.SendChatMessage(ctx, &service.SendChatMessageParams{
		Message:  input.Message,
		SenderId: c.getConnIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}

	return nil
}

func (c *controller) writeRoomError(ctx context.Context, conn wsrouter.Conn, msg string) error {
	return c.writeToConn(ctx, conn, &service.Message{
		Type:    service.MessageRoomError,
		Payload: service.RoomErrorPayload{Error: msg},
	})
}
