package orch

import (
	"errors"

	"github.com/dkeye/DocRelay/internal/core"
	"github.com/dkeye/DocRelay/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotJoined    = errors.New("session has not joined a room")
	ErrRoomMismatch = errors.New("event room differs from session room")
)

// relayRoom resolves the room a relay event from sid is scoped to.
// An empty claimed room means the session's own.
func (o *Orchestrator) relayRoom(sid core.SessionID, claimed string) (domain.RoomName, error) {
	room, ok := o.Registry.RoomOf(sid)
	if !ok {
		return "", ErrNotJoined
	}
	if claimed != "" && domain.RoomName(claimed) != room {
		return "", ErrRoomMismatch
	}
	return room, nil
}

// ContentChange relays an edit to the rest of the room.
func (o *Orchestrator) ContentChange(sid core.SessionID, p core.ContentIn) error {
	room, err := o.relayRoom(sid, p.Room)
	if err != nil {
		return err
	}
	o.publish(room, core.EventContentChange, p.Out(), sid, true)
	return nil
}

// RequestContent asks the rest of the room for the current document.
// Peers answer with send-current-content; the relay does not pick one.
func (o *Orchestrator) RequestContent(sid core.SessionID, p core.ContentRequestIn) error {
	room, err := o.relayRoom(sid, p.Room)
	if err != nil {
		return err
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("content requested")
	o.publish(room, core.EventRequestCurrentContent, core.ContentRequestOut{
		RequesterID: sid,
		User:        p.User,
	}, sid, true)
	return nil
}

// SendContent relays a peer's answer as receive-current-content.
func (o *Orchestrator) SendContent(sid core.SessionID, p core.ContentIn) error {
	room, err := o.relayRoom(sid, p.Room)
	if err != nil {
		return err
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("content sent")
	o.publish(room, core.EventReceiveCurrentContent, p.Out(), sid, true)
	return nil
}
