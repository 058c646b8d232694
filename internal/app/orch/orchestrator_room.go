package orch

import (
	"fmt"

	"github.com/dkeye/DocRelay/internal/core"
	"github.com/dkeye/DocRelay/internal/domain"
	"github.com/dkeye/DocRelay/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Join binds the session to a room and sends the new roster to everyone
// in it, the joiner included. A second join is rejected.
func (o *Orchestrator) Join(sid core.SessionID, p core.JoinRoom) error {
	room, err := domain.ParseRoomName(p.Room)
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}
	name, err := domain.ParseDisplayName(p.User)
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}
	if err := o.Registry.Join(sid, room, name); err != nil {
		return fmt.Errorf("join %s: %w", room, err)
	}

	roster := o.Rooms.AddMember(room, name)
	metrics.Rooms.Set(float64(o.Rooms.Len()))
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Int("members", len(roster)).Msg("added to room")
	o.broadcastRoster(room, sid, roster)
	return nil
}
