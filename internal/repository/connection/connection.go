package connection

// Conn is a live client connection the server can write events to.
type Conn interface {
	WriteJSON(v any) error
}

// Entry is the registry view of one connection. RoomCode is empty until the
// connection creates or joins a room.
type Entry struct {
	Id       string
	Conn     Conn
	RoomCode string
	Nickname string
}
