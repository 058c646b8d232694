package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/DocRelay/internal/core"
	"github.com/dkeye/DocRelay/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var errEmptyPayload = errors.New("empty payload")

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(ctl.Cfg.WriteWait)
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), deadline)
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		}
	}
}

// readPump owns the read side. On exit it posts the disconnect, which the
// loop runs after every event this connection posted before.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		ctl.Loop.Post(func() { ctl.Orch.OnDisconnect(sid) })
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Cfg.PongWait))
	})
	limiter := NewRateLimiter(ctl.Cfg.RateLimit.Events, ctl.Cfg.RateLimit.Interval)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		if !limiter.Allow() {
			ctl.rejectCode(sid, c, codeRateLimited)
			continue
		}
		ctl.handleSignal(sid, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(sid core.SessionID, c *WsSignalConn, data []byte) {
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		ctl.rejectCode(sid, c, codeBadPayload)
		return
	}

	switch env.Type {
	case core.EventJoinRoom:
		ctl.handleJoin(sid, c, env.Data)
	case core.EventContentChange:
		ctl.handleContentChange(sid, c, env.Data)
	case core.EventRequestCurrentContent:
		ctl.handleRequestContent(sid, c, env.Data)
	case core.EventSendCurrentContent:
		ctl.handleSendContent(sid, c, env.Data)
	case core.EventPing:
		ctl.handlePing(sid, c)
	default:
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("type", env.Type).Msg("unknown signal")
		ctl.rejectCode(sid, c, codeUnknownEvent)
	}
}

// decodePayload rejects a missing data field; fields inside it stay optional.
func decodePayload(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errEmptyPayload
	}
	return json.Unmarshal(data, v)
}

// post runs fn on the event loop and answers its error to the sender.
func (ctl *SignalWSController) post(sid core.SessionID, c *WsSignalConn, fn func() error) {
	ctl.Loop.Post(func() {
		if err := fn(); err != nil {
			ctl.reject(sid, c, err)
		}
	})
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, event string, v any) {
	b, err := core.Encode(event, v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) reject(sid core.SessionID, c *WsSignalConn, err error) {
	code := errorCode(err)
	log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("code", code).Msg("event rejected")
	ctl.rejectCode(sid, c, code)
}

func (ctl *SignalWSController) rejectCode(sid core.SessionID, c *WsSignalConn, code string) {
	metrics.RejectedEvents.WithLabelValues(code).Inc()
	ctl.sendJSON(c, core.EventError, core.ErrorOut{Error: code})
}
