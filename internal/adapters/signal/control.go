package signal

import "github.com/dkeye/DocRelay/internal/core"

func (ctl *SignalWSController) handlePing(sid core.SessionID, conn *WsSignalConn) {
	ctl.post(sid, conn, func() error { return ctl.Orch.Ping(sid) })
}
