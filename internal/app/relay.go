package app

import (
	"errors"

	"github.com/dkeye/DocRelay/internal/core"
	"github.com/dkeye/DocRelay/internal/domain"
	"github.com/dkeye/DocRelay/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Router fans room-scoped events out to the room's connections.
// Delivery is best effort: a full send buffer loses the frame.
type Router struct {
	Registry *Registry
}

func NewRouter(reg *Registry) *Router {
	return &Router{Registry: reg}
}

// Broadcast encodes event once and hands it to every connection in room.
// from is skipped when excludeSender is set.
func (r *Router) Broadcast(
	room domain.RoomName,
	event string,
	data any,
	from core.SessionID,
	excludeSender bool,
) core.PublishResult {
	res := core.PublishResult{}
	frame, err := core.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("event", event).Msg("encode")
		return res
	}

	for _, snap := range r.Registry.MembersOfRoom(room) {
		if excludeSender && snap.SID == from {
			continue
		}
		if err := snap.Signal.TrySend(frame); err != nil {
			if !errors.Is(err, core.ErrBackpressure) {
				log.Debug().Err(err).Str("module", "app.relay").Str("dst_sid", string(snap.SID)).Msg("send failed")
			}
			res.Dropped = append(res.Dropped, snap.SID)
			continue
		}
		res.SentTo++
	}

	metrics.RelayedFrames.WithLabelValues(event).Add(float64(res.SentTo))
	if n := len(res.Dropped); n > 0 {
		metrics.DroppedFrames.WithLabelValues(event).Add(float64(n))
	}
	log.Debug().
		Str("module", "app.relay").
		Str("room", string(room)).
		Str("event", event).
		Str("from", string(from)).
		Int("sent_to", res.SentTo).
		Int("dropped", len(res.Dropped)).
		Msg("broadcast result")
	return res
}

// SendTo delivers one event to a single connection, outside any room scope.
func (r *Router) SendTo(sid core.SessionID, event string, data any) error {
	sig, ok := r.Registry.Signal(sid)
	if !ok {
		return ErrUnknownSession
	}
	frame, err := core.Encode(event, data)
	if err != nil {
		return err
	}
	return sig.TrySend(frame)
}
