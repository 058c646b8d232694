package app

import (
	"fmt"

	"github.com/dkeye/DocRelay/internal/core"
	"github.com/dkeye/DocRelay/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose send buffer is full.
type Policy interface {
	OnBackPressure(room domain.RoomName, sid core.SessionID) BackpressureAction
}

// DropPolicy loses the frame and keeps the member.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.RoomName, core.SessionID) BackpressureAction {
	return DropFrame
}

// KickPolicy disconnects members that cannot keep up.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(domain.RoomName, core.SessionID) BackpressureAction {
	return KickMember
}

// PolicyByName maps the backpressure config value to a Policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return DropPolicy{}, nil
	case "kick":
		return KickPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
