package domain

// Session is the server-side record of one live connection.
// Room and Name are set once, on join.
type Session struct {
	Room RoomName
	Name DisplayName
}

// Joined reports whether the session is bound to a room.
func (s Session) Joined() bool { return s.Room != "" }
