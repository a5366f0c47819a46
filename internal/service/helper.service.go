package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/repository/directory"
	"github.com/sharetube/watchparty/internal/repository/room"
)

func (s service) getDefaultPlayer() room.Player {
	return room.Player{
		EpisodeId:   nil,
		CurrentTime: 0,
		IsPlaying:   false,
	}
}

func (s service) normalizeNickname(nickname string) string {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return DefaultNickname
	}

	if utf8.RuneCountInString(nickname) > maxNicknameLength {
		nickname = strings.TrimSpace(string([]rune(nickname)[:maxNicknameLength]))
	}

	return nickname
}

func (s service) normalizeRoomCode(roomCode string) string {
	return strings.ToUpper(strings.TrimSpace(roomCode))
}

func (s service) mapMembers(members []room.Member) []Member {
	res := make([]Member, 0, len(members))
	for _, m := range members {
		res = append(res, Member{
			Id:       m.Id,
			Nickname: m.Nickname,
			IsHost:   m.IsHost,
		})
	}

	return res
}

func (s service) mapPlayer(player room.Player) Player {
	res := Player{
		CurrentTime: player.CurrentTime,
		IsPlaying:   player.IsPlaying,
	}
	if player.EpisodeId != nil {
		episodeId := *player.EpisodeId
		res.EpisodeId = &episodeId
	}

	return res
}

// memberIds lists the room's members in join order, leaving out excludeId.
func (s service) memberIds(rm *room.Room, excludeId string) []string {
	ids := make([]string, 0, len(rm.Members))
	for _, m := range rm.Members {
		if m.Id != excludeId {
			ids = append(ids, m.Id)
		}
	}

	return ids
}

func (s service) summarize(rm *room.Room) directory.Summary {
	summary := directory.Summary{
		RoomCode:     rm.Code,
		MembersCount: len(rm.Members),
		IsPlaying:    rm.Player.IsPlaying,
		UpdatedAt:    time.Now().Unix(),
		Version:      rm.Version,
	}
	if host, err := rm.GetMember(rm.HostId); err == nil {
		summary.HostNickname = host.Nickname
	}
	if rm.Player.EpisodeId != nil {
		summary.EpisodeId = *rm.Player.EpisodeId
	}

	return summary
}

// send queues msg on every conn. It is called inside the room's critical
// section, so every member sees the room's messages in mutation order.
// Conn.WriteJSON must not block.
func (s service) send(ctx context.Context, conns []connection.Conn, msg *Message) {
	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.DebugContext(ctx, "failed to queue message", "type", msg.Type, "error", err)
		}
	}
}

func (s service) sendToMembers(ctx context.Context, rm *room.Room, excludeId string, msg *Message) {
	s.send(ctx, s.connRepo.GetConns(s.memberIds(rm, excludeId)), msg)
}

func (s service) sendTo(ctx context.Context, connId string, msg *Message) {
	s.send(ctx, s.connRepo.GetConns([]string{connId}), msg)
}

// publish mirrors the room to the directory. Failures are logged and never
// affect the operation that produced the summary.
func (s service) publish(ctx context.Context, summary *directory.Summary) {
	if err := s.directory.Publish(ctx, summary); err != nil {
		s.logger.WarnContext(ctx, "failed to publish room summary", "room_code", summary.RoomCode, "error", err)
	}
}

func (s service) unpublish(ctx context.Context, roomCode string, version uint64) {
	if err := s.directory.Remove(ctx, roomCode, version); err != nil {
		s.logger.WarnContext(ctx, "failed to remove room summary", "room_code", roomCode, "error", err)
	}
}
