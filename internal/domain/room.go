package domain

import "errors"

const MaxRoomNameLen = 128

var (
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
)

type RoomName string

func ParseRoomName(raw string) (RoomName, error) {
	if len(raw) == 0 {
		return "", ErrRoomNameEmpty
	}
	if len(raw) > MaxRoomNameLen {
		return "", ErrRoomNameTooLong
	}
	return RoomName(raw), nil
}
