package signal

import (
	"encoding/json"

	"github.com/dkeye/DocRelay/internal/core"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var p core.JoinRoom
	if err := decodePayload(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad join payload")
		ctl.rejectCode(sid, conn, joinDecodeCode(err))
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Str("user", p.User).Msg("join")
	ctl.post(sid, conn, func() error { return ctl.Orch.Join(sid, p) })
}
