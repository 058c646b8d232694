package core

import "github.com/dkeye/DocRelay/internal/domain"

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []SessionID
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"member_count"`
}

// RoomDirectory maps room names to their ordered rosters.
// A room exists only while its roster is non-empty.
type RoomDirectory interface {
	// AddMember appends name, creating the room if needed, and returns the roster.
	AddMember(room domain.RoomName, name domain.DisplayName) []domain.DisplayName
	// RemoveMember drops the first occurrence of name. ok is false when the
	// room was deleted or never existed; there is nobody left to notify.
	RemoveMember(room domain.RoomName, name domain.DisplayName) (roster []domain.DisplayName, ok bool)
	Snapshot(room domain.RoomName) []domain.DisplayName
	List() []RoomInfo
	Len() int
}
