package service

type Member struct {
	Id       string `json:"id"`
	Nickname string `json:"nickname"`
	IsHost   bool   `json:"isHost"`
}

type Player struct {
	EpisodeId   *string `json:"episodeId"`
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
}

type ChatMessage struct {
	Id       string `json:"id"`
	Nickname string `json:"nickname"`
	Message  string `json:"message"`
	IsHost   bool   `json:"isHost"`
	IsSystem bool   `json:"isSystem"`
}

type RoomSummary struct {
	RoomCode     string `json:"roomCode"`
	MembersCount int    `json:"membersCount"`
	HostNickname string `json:"hostNickname"`
	EpisodeId    string `json:"episodeId"`
	IsPlaying    bool   `json:"isPlaying"`
}

const (
	ActionPlay  = "play"
	ActionPause = "pause"
)

// Message is the envelope written to every connection.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	MessageRoomCreated   = "roomCreated"
	MessageRoomJoined    = "roomJoined"
	MessageRoomError     = "roomError"
	MessageRoomState     = "roomState"
	MessageUserJoined    = "userJoined"
	MessageUserLeft      = "userLeft"
	MessageVideoAction   = "videoAction"
	MessageEpisodeChange = "episodeChange"
	MessageChatMessage   = "chatMessage"
)

type RoomPayload struct {
	RoomCode string   `json:"roomCode"`
	Members  []Member `json:"members"`
}

type MembersPayload struct {
	Members []Member `json:"members"`
}

type UserLeftPayload struct {
	Members []Member `json:"members"`
	HostId  string   `json:"hostId"`
}

type RoomErrorPayload struct {
	Error string `json:"error"`
}

type VideoActionPayload struct {
	Action string  `json:"action"`
	Time   float64 `json:"time"`
}

type EpisodeChangePayload struct {
	EpisodeId string `json:"episodeId"`
}
