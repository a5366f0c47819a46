package service

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/repository/directory"
	"github.com/sharetube/watchparty/internal/repository/room"
)

type UpdatePlayerStateParams struct {
	Action      string  `json:"action"`
	CurrentTime float64 `json:"time"`
	SenderId    string  `json:"sender_id"`
}

type UpdatePlayerStateResponse struct {
	Action      string
	CurrentTime float64
}

func (s service) UpdatePlayerState(ctx context.Context, params *UpdatePlayerStateParams) (UpdatePlayerStateResponse, error) {
	if err := validation.ValidateStructWithContext(ctx, params,
		validation.Field(&params.Action, ActionRule...),
		validation.Field(&params.CurrentTime, CurrentTimeRule...),
	); err != nil {
		return UpdatePlayerStateResponse{}, err
	}

	var (
		resp    UpdatePlayerStateResponse
		summary directory.Summary
	)
	if err := s.updateAsHost(ctx, params.SenderId, func(rm *room.Room) {
		rm.Player.IsPlaying = params.Action == ActionPlay
		rm.Player.CurrentTime = params.CurrentTime

		resp.Action = params.Action
		resp.CurrentTime = params.CurrentTime
		summary = s.summarize(rm)

		s.sendToMembers(ctx, rm, params.SenderId, &Message{
			Type:    MessageVideoAction,
			Payload: VideoActionPayload{Action: resp.Action, Time: resp.CurrentTime},
		})
	}); err != nil {
		return UpdatePlayerStateResponse{}, err
	}

	s.publish(ctx, &summary)

	return resp, nil
}

type UpdatePlayerEpisodeParams struct {
	EpisodeId string `json:"episode_id"`
	SenderId  string `json:"sender_id"`
}

type UpdatePlayerEpisodeResponse struct {
	EpisodeId string
}

// UpdatePlayerEpisode switches the episode and rewinds to the start. Whether
// the player is running is left as it was.
func (s service) UpdatePlayerEpisode(ctx context.Context, params *UpdatePlayerEpisodeParams) (UpdatePlayerEpisodeResponse, error) {
	if err := validation.ValidateStructWithContext(ctx, params,
		validation.Field(&params.EpisodeId, EpisodeIdRule...),
	); err != nil {
		return UpdatePlayerEpisodeResponse{}, err
	}

	var (
		resp    UpdatePlayerEpisodeResponse
		summary directory.Summary
	)
	if err := s.updateAsHost(ctx, params.SenderId, func(rm *room.Room) {
		episodeId := params.EpisodeId
		rm.Player.EpisodeId = &episodeId
		rm.Player.CurrentTime = 0

		resp.EpisodeId = episodeId
		summary = s.summarize(rm)

		s.sendToMembers(ctx, rm, params.SenderId, &Message{
			Type:    MessageEpisodeChange,
			Payload: EpisodeChangePayload{EpisodeId: resp.EpisodeId},
		})
	}); err != nil {
		return UpdatePlayerEpisodeResponse{}, err
	}

	s.publish(ctx, &summary)

	return resp, nil
}

// updateAsHost applies fn to the sender's room when the sender currently holds
// host. Host is checked under the room lock on every call because it can move
// to another member at any time.
func (s service) updateAsHost(ctx context.Context, senderId string, fn func(*room.Room)) error {
	roomCode, err := s.getSenderRoomCode(senderId)
	if err != nil {
		return err
	}

	err = s.roomRepo.Update(ctx, roomCode, func(rm *room.Room) error {
		if !rm.IsHost(senderId) {
			return ErrPermissionDenied
		}

		fn(rm)
		return nil
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return ErrNotInRoom
		}

		return err
	}

	return nil
}

func (s service) getSenderRoomCode(senderId string) (string, error) {
	roomCode, err := s.connRepo.GetRoomCode(senderId)
	if err != nil {
		if errors.Is(err, connection.ErrNotInRoom) || errors.Is(err, connection.ErrNotFound) {
			return "", ErrNotInRoom
		}

		return "", fmt.Errorf("failed to get room code: %w", err)
	}

	return roomCode, nil
}
