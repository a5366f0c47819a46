package directory

import "errors"

var ErrSummaryNotFound = errors.New("room summary not found")

// Summary is the public view of a live room published to the directory.
type Summary struct {
	RoomCode     string `redis:"room_code" json:"roomCode"`
	MembersCount int    `redis:"members_count" json:"membersCount"`
	HostNickname string `redis:"host_nickname" json:"hostNickname"`
	EpisodeId    string `redis:"episode_id" json:"episodeId"`
	IsPlaying    bool   `redis:"is_playing" json:"isPlaying"`
	UpdatedAt    int64  `redis:"updated_at" json:"updatedAt"`
	// Version orders writes for the same code. Older versions are ignored.
	Version uint64 `redis:"version" json:"-"`
}
