package signal

import (
	"encoding/json"

	"github.com/dkeye/DocRelay/internal/core"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleContentChange(sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var p core.ContentIn
	if err := decodePayload(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad content-change payload")
		ctl.rejectCode(sid, conn, codeBadPayload)
		return
	}
	ctl.post(sid, conn, func() error { return ctl.Orch.ContentChange(sid, p) })
}

func (ctl *SignalWSController) handleRequestContent(sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var p core.ContentRequestIn
	if err := decodePayload(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad request-current-content payload")
		ctl.rejectCode(sid, conn, codeBadPayload)
		return
	}
	ctl.post(sid, conn, func() error { return ctl.Orch.RequestContent(sid, p) })
}

func (ctl *SignalWSController) handleSendContent(sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var p core.ContentIn
	if err := decodePayload(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad send-current-content payload")
		ctl.rejectCode(sid, conn, codeBadPayload)
		return
	}
	ctl.post(sid, conn, func() error { return ctl.Orch.SendContent(sid, p) })
}
