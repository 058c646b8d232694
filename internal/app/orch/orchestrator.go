package orch

import (
	"context"
	"errors"

	"github.com/dkeye/DocRelay/internal/app"
	"github.com/dkeye/DocRelay/internal/core"
	"github.com/dkeye/DocRelay/internal/domain"
	"github.com/dkeye/DocRelay/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Orchestrator runs the session lifecycle and relay protocol.
// Its methods are not safe for concurrent use; call them from a Loop.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomDirectory
	Relay    *app.Router
	Policy   app.Policy
}

func New(reg *app.Registry, rooms core.RoomDirectory, policy app.Policy) *Orchestrator {
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Relay:    app.NewRouter(reg),
		Policy:   policy,
	}
}

func (o *Orchestrator) OnConnect(sid core.SessionID, sig core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.Connect(sid, sig, cancel)
	metrics.Connections.Inc()
}

// OnDisconnect destroys the session and cleans up its room membership.
// Safe for sessions that never joined.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	sess, ok := o.Registry.Disconnect(sid)
	if !ok {
		return
	}
	metrics.Connections.Dec()
	if !sess.Joined() {
		return
	}

	roster, ok := o.Rooms.RemoveMember(sess.Room, sess.Name)
	metrics.Rooms.Set(float64(o.Rooms.Len()))
	if !ok {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(sess.Room)).Msg("last member left")
		return
	}
	o.broadcastRoster(sess.Room, sid, roster)
}

// Ping answers the sender alone. A full buffer just loses the pong.
func (o *Orchestrator) Ping(sid core.SessionID) error {
	if err := o.Relay.SendTo(sid, core.EventPong, nil); err != nil && !errors.Is(err, core.ErrBackpressure) {
		return err
	}
	return nil
}

func (o *Orchestrator) broadcastRoster(room domain.RoomName, from core.SessionID, roster []domain.DisplayName) {
	o.publish(room, core.EventUsersUpdate, roster, from, false)
}

func (o *Orchestrator) publish(room domain.RoomName, event string, data any, from core.SessionID, excludeSender bool) {
	res := o.Relay.Broadcast(room, event, data, from, excludeSender)
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			// The read pump notices the cancel and posts the disconnect.
			o.Registry.Cancel(slow)
			log.Warn().Str("module", "orch").Str("sid", string(slow)).Str("room", string(room)).Msg("kicked slow member")
		case app.DropFrame, app.NoAction:
		}
	}
}
