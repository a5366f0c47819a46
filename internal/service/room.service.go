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

type ConnectMemberParams struct {
	Conn   connection.Conn
	ConnId string
}

func (s service) ConnectMember(_ context.Context, params *ConnectMemberParams) error {
	if err := s.connRepo.Add(params.Conn, params.ConnId); err != nil {
		return fmt.Errorf("failed to connect member: %w", err)
	}

	return nil
}

type CreateRoomParams struct {
	ConnId   string
	Nickname string
}

type CreateRoomResponse struct {
	RoomCode string
	Members  []Member
}

// CreateRoom opens a room with the sender as host and replies roomCreated.
// A sender already in a room leaves it only after the new room exists.
func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	prevCode, err := s.getCurrentRoomCode(params.ConnId)
	if err != nil {
		return CreateRoomResponse{}, err
	}

	nickname := s.normalizeNickname(params.Nickname)

	for attempt := 0; attempt < maxRoomCodeAttempts; attempt++ {
		code := s.generator.GenerateRandomString(RoomCodeLength)

		rm := room.Room{
			Code: code,
			Members: []room.Member{{
				Id:       params.ConnId,
				Nickname: nickname,
				IsHost:   true,
			}},
			HostId: params.ConnId,
			Player: s.getDefaultPlayer(),
		}

		var (
			resp    CreateRoomResponse
			summary directory.Summary
		)
		err := s.roomRepo.Add(ctx, rm, func(rm *room.Room) error {
			if err := s.connRepo.Bind(params.ConnId, rm.Code, nickname); err != nil {
				return fmt.Errorf("failed to bind connection: %w", err)
			}

			resp.RoomCode = rm.Code
			resp.Members = s.mapMembers(rm.Members)
			summary = s.summarize(rm)

			s.sendTo(ctx, params.ConnId, &Message{
				Type:    MessageRoomCreated,
				Payload: RoomPayload{RoomCode: resp.RoomCode, Members: resp.Members},
			})

			return nil
		})
		if err != nil {
			if errors.Is(err, room.ErrRoomAlreadyExists) {
				s.logger.DebugContext(ctx, "room code collision", "room_code", code, "attempt", attempt)
				continue
			}

			return CreateRoomResponse{}, fmt.Errorf("failed to add room: %w", err)
		}

		s.publish(ctx, &summary)
		s.leavePrevious(ctx, prevCode, params.ConnId)

		return resp, nil
	}

	return CreateRoomResponse{}, ErrRoomCodeExhausted
}

type JoinRoomParams struct {
	ConnId   string
	RoomCode string
	Nickname string
}

type JoinRoomResponse struct {
	RoomCode string
	Members  []Member
	Player   Player
}

// JoinRoom adds the sender to a room, replies roomJoined and roomState, and
// tells the other members with userJoined. The sender's current room, if any,
// is left only once the join succeeded. Joining the room the sender is
// already in re-sends the snapshot and changes nothing.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	roomCode := s.normalizeRoomCode(params.RoomCode)
	if err := validation.Validate(roomCode, RoomCodeRule...); err != nil {
		return JoinRoomResponse{}, ErrRoomNotFound
	}

	prevCode, err := s.getCurrentRoomCode(params.ConnId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	if prevCode == roomCode {
		return s.resendRoom(ctx, roomCode, params.ConnId)
	}

	nickname := s.normalizeNickname(params.Nickname)

	var (
		resp    JoinRoomResponse
		summary directory.Summary
	)
	err = s.roomRepo.Update(ctx, roomCode, func(rm *room.Room) error {
		if s.membersLimit > 0 && len(rm.Members) >= s.membersLimit {
			return ErrRoomFull
		}

		if err := s.connRepo.Bind(params.ConnId, rm.Code, nickname); err != nil {
			return fmt.Errorf("failed to bind connection: %w", err)
		}

		rm.Members = append(rm.Members, room.Member{
			Id:       params.ConnId,
			Nickname: nickname,
			IsHost:   false,
		})

		resp.RoomCode = rm.Code
		resp.Members = s.mapMembers(rm.Members)
		resp.Player = s.mapPlayer(rm.Player)
		summary = s.summarize(rm)

		s.sendJoined(ctx, params.ConnId, &resp)
		s.sendToMembers(ctx, rm, params.ConnId, &Message{
			Type:    MessageUserJoined,
			Payload: MembersPayload{Members: resp.Members},
		})

		return nil
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return JoinRoomResponse{}, ErrRoomNotFound
		}

		return JoinRoomResponse{}, err
	}

	s.publish(ctx, &summary)
	s.leavePrevious(ctx, prevCode, params.ConnId)

	return resp, nil
}

func (s service) resendRoom(ctx context.Context, roomCode, connId string) (JoinRoomResponse, error) {
	var resp JoinRoomResponse
	err := s.roomRepo.Update(ctx, roomCode, func(rm *room.Room) error {
		if rm.MemberIndex(connId) < 0 {
			return room.ErrMemberNotFound
		}

		resp.RoomCode = rm.Code
		resp.Members = s.mapMembers(rm.Members)
		resp.Player = s.mapPlayer(rm.Player)

		s.sendJoined(ctx, connId, &resp)

		return nil
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return JoinRoomResponse{}, ErrRoomNotFound
		}

		return JoinRoomResponse{}, fmt.Errorf("failed to resend room: %w", err)
	}

	return resp, nil
}

func (s service) sendJoined(ctx context.Context, connId string, resp *JoinRoomResponse) {
	s.sendTo(ctx, connId, &Message{
		Type:    MessageRoomJoined,
		Payload: RoomPayload{RoomCode: resp.RoomCode, Members: resp.Members},
	})
	s.sendTo(ctx, connId, &Message{
		Type:    MessageRoomState,
		Payload: resp.Player,
	})
}

type LeaveRoomParams struct {
	ConnId string
}

type LeaveRoomResponse struct {
	RoomCode      string
	Members       []Member
	HostId        string
	IsHostChanged bool
	IsRoomDeleted bool
}

// LeaveRoom removes the connection from its room. Leaving without being in a
// room is a no-op, so it is safe to call more than once for the same connection.
func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	roomCode, err := s.getCurrentRoomCode(params.ConnId)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return LeaveRoomResponse{}, nil
		}

		return LeaveRoomResponse{}, err
	}
	if roomCode == "" {
		return LeaveRoomResponse{}, nil
	}
	defer s.connRepo.Unbind(params.ConnId)

	resp, err := s.leaveRoom(ctx, roomCode, params.ConnId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) || errors.Is(err, room.ErrMemberNotFound) {
			s.logger.InfoContext(ctx, "connection bound to a room it is not in", "room_code", roomCode, "error", err)
			return LeaveRoomResponse{}, nil
		}

		return LeaveRoomResponse{}, err
	}

	return resp, nil
}

// leaveRoom removes connId from roomCode and sends userLeft to the members
// that remain. It does not touch the connection's binding.
func (s service) leaveRoom(ctx context.Context, roomCode, connId string) (LeaveRoomResponse, error) {
	var (
		resp    LeaveRoomResponse
		summary directory.Summary
	)
	err := s.roomRepo.Update(ctx, roomCode, func(rm *room.Room) error {
		isHostChanged, err := rm.RemoveMember(connId)
		if err != nil {
			return err
		}

		resp.RoomCode = rm.Code
		resp.IsHostChanged = isHostChanged
		summary = s.summarize(rm)

		if len(rm.Members) == 0 {
			resp.IsRoomDeleted = true
			return nil
		}

		resp.Members = s.mapMembers(rm.Members)
		resp.HostId = rm.HostId

		s.sendToMembers(ctx, rm, "", &Message{
			Type:    MessageUserLeft,
			Payload: UserLeftPayload{Members: resp.Members, HostId: resp.HostId},
		})

		return nil
	})
	if err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to leave room: %w", err)
	}

	if resp.IsHostChanged && !resp.IsRoomDeleted {
		s.logger.InfoContext(ctx, "host changed", "room_code", roomCode, "host_id", resp.HostId)
	}

	if resp.IsRoomDeleted {
		s.unpublish(ctx, roomCode, summary.Version)
	} else {
		s.publish(ctx, &summary)
	}

	return resp, nil
}

// leavePrevious leaves the room a connection was in before it moved to
// another one. Failures are logged; the move itself already succeeded.
func (s service) leavePrevious(ctx context.Context, prevCode, connId string) {
	if prevCode == "" {
		return
	}

	if _, err := s.leaveRoom(ctx, prevCode, connId); err != nil {
		if errors.Is(err, room.ErrRoomNotFound) || errors.Is(err, room.ErrMemberNotFound) {
			return
		}

		s.logger.WarnContext(ctx, "failed to leave previous room", "room_code", prevCode, "error", err)
	}
}

// DisconnectMember runs LeaveRoom and then forgets the connection entirely.
func (s service) DisconnectMember(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	resp, err := s.LeaveRoom(ctx, params)

	if _, err := s.connRepo.Remove(params.ConnId); err != nil && !errors.Is(err, connection.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to remove connection", "error", err)
	}

	return resp, err
}

func (s service) ListRooms(ctx context.Context) []RoomSummary {
	rooms := s.roomRepo.List(ctx)

	summaries := make([]RoomSummary, 0, len(rooms))
	for i := range rooms {
		summary := s.summarize(&rooms[i])
		summaries = append(summaries, RoomSummary{
			RoomCode:     summary.RoomCode,
			MembersCount: summary.MembersCount,
			HostNickname: summary.HostNickname,
			EpisodeId:    summary.EpisodeId,
			IsPlaying:    summary.IsPlaying,
		})
	}

	return summaries
}

// getCurrentRoomCode returns "" for a connection that is not in a room and
// connection.ErrNotFound for one that never connected.
func (s service) getCurrentRoomCode(connId string) (string, error) {
	roomCode, err := s.connRepo.GetRoomCode(connId)
	if err != nil {
		if errors.Is(err, connection.ErrNotInRoom) {
			return "", nil
		}

		return "", fmt.Errorf("failed to get room code: %w", err)
	}

	return roomCode, nil
}
