package room

import "slices"

type Member struct {
	Id       string
	Nickname string
	IsHost   bool
}

type Player struct {
	EpisodeId   *string
	CurrentTime float64
	IsPlaying   bool
}

// Room is owned by the store. Callers receive it only inside Update or as a Clone.
type Room struct {
	Code    string
	Members []Member
	HostId  string
	Player  Player
	// Version is assigned by the store on every mutation and grows across all
	// rooms, so it also orders a room against an earlier room with the same code.
	Version uint64
}

func (r *Room) MemberIndex(memberId string) int {
	return slices.IndexFunc(r.Members, func(m Member) bool {
		return m.Id == memberId
	})
}

func (r *Room) GetMember(memberId string) (Member, error) {
	i := r.MemberIndex(memberId)
	if i < 0 {
		return Member{}, ErrMemberNotFound
	}

	return r.Members[i], nil
}

func (r *Room) IsHost(memberId string) bool {
	return r.HostId != "" && r.HostId == memberId
}

// RemoveMember drops memberId from the roster. When it held host the earliest
// joined remaining member is promoted. It reports whether the host changed.
func (r *Room) RemoveMember(memberId string) (hostChanged bool, err error) {
	i := r.MemberIndex(memberId)
	if i < 0 {
		return false, ErrMemberNotFound
	}

	r.Members = slices.Delete(r.Members, i, i+1)

	if r.HostId != memberId {
		return false, nil
	}

	r.HostId = ""
	if len(r.Members) > 0 {
		r.Members[0].IsHost = true
		r.HostId = r.Members[0].Id
	}

	return true, nil
}

func (r *Room) Clone() Room {
	clone := *r
	clone.Members = slices.Clone(r.Members)
	if r.Player.EpisodeId != nil {
		episodeId := *r.Player.EpisodeId
		clone.Player.EpisodeId = &episodeId
	}

	return clone
}
