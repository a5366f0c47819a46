package service

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/oklog/ulid/v2"
	"github.com/sharetube/watchparty/internal/repository/room"
)

type SendChatMessageParams struct {
	Message  string `json:"message"`
	SenderId string `json:"sender_id"`
}

type SendChatMessageResponse struct {
	ChatMessage ChatMessage
}

func (s service) SendChatMessage(ctx context.Context, params *SendChatMessageParams) (SendChatMessageResponse, error) {
	params.Message = strings.TrimSpace(params.Message)
	if params.Message == "" {
		return SendChatMessageResponse{}, ErrEmptyMessage
	}

	if err := validation.ValidateStructWithContext(ctx, params,
		validation.Field(&params.Message, ChatMessageRule...),
	); err != nil {
		return SendChatMessageResponse{}, err
	}

	sender, err := s.connRepo.Get(params.SenderId)
	if err != nil {
		return SendChatMessageResponse{}, ErrNotInRoom
	}

	if sender.RoomCode == "" {
		return SendChatMessageResponse{}, ErrNotInRoom
	}

	var resp SendChatMessageResponse
	err = s.roomRepo.Update(ctx, sender.RoomCode, func(rm *room.Room) error {
		if rm.MemberIndex(params.SenderId) < 0 {
			return ErrNotInRoom
		}

		resp.ChatMessage = ChatMessage{
			Id:       ulid.Make().String(),
			Nickname: sender.Nickname,
			Message:  params.Message,
			IsHost:   rm.IsHost(params.SenderId),
			IsSystem: false,
		}
		// the sender receives its own message too
		s.sendToMembers(ctx, rm, "", &Message{
			Type:    MessageChatMessage,
			Payload: resp.ChatMessage,
		})

		return nil
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return SendChatMessageResponse{}, ErrNotInRoom
		}

		return SendChatMessageResponse{}, err
	}

	return resp, nil
}
