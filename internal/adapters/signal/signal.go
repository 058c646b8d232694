package signal

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/DocRelay/internal/app/orch"
	"github.com/dkeye/DocRelay/internal/config"
	"github.com/dkeye/DocRelay/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var errConnClosed = errors.New("connection closed")

type SignalWSController struct {
	Orch *orch.Orchestrator
	Loop *orch.Loop
	Cfg  *config.Config

	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, loop *orch.Loop, cfg *config.Config) *SignalWSController {
	origins := newOriginPolicy(cfg.AllowedOrigins)
	return &SignalWSController{
		Orch: o,
		Loop: loop,
		Cfg:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     origins.check,
		},
	}
}

// WsSignalConn implements core.SignalConnection over a WebSocket.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal upgrades the request and starts the connection's pumps.
// ctx is the server lifetime; the request context ends with this handler.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("remote", c.ClientIP()).Msg("new WS connection")

	conn := newWsSignalConn(ws, ctl.Cfg.SendBuffer)
	connCtx, cancel := context.WithCancel(ctx)
	if !ctl.Loop.Post(func() { ctl.Orch.OnConnect(sid, conn, cancel) }) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("event loop stopped, dropping connection")
		cancel()
		conn.Close()
		return
	}

	go ctl.writePump(connCtx, conn)
	go ctl.readPump(connCtx, cancel, sid, conn)
}
