package http

import (
	"context"
	nethttp "net/http"
	"slices"
	"time"

	"github.com/dkeye/DocRelay/internal/adapters/signal"
	"github.com/dkeye/DocRelay/internal/app/orch"
	"github.com/dkeye/DocRelay/internal/config"
	"github.com/dkeye/DocRelay/internal/domain"
	"github.com/dkeye/DocRelay/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

const livenessText = "DocRelay server is running."

// SetupRouter wires HTTP routes (health, REST, WS) with the orchestrator.
// ctx bounds every WebSocket connection the router accepts.
func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, loop *orch.Loop) *gin.Engine {
	gin.SetMode(cfg.Mode)

	r := gin.New()
	if cfg.Mode == gin.DebugMode {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.String(nethttp.StatusOK, livenessText)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")

	// GET /api/rooms: live rooms with member counts
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"rooms": o.Rooms.List()})
	})

	// GET /api/rooms/:name: roster of one room, empty if it does not exist
	api.GET("/rooms/:name", func(c *gin.Context) {
		name := domain.RoomName(c.Param("name"))
		c.JSON(nethttp.StatusOK, gin.H{
			"name":    name,
			"members": o.Rooms.Snapshot(name),
		})
	})

	ctrl := signal.NewSignalWSController(o, loop, cfg)
	r.GET("/ws", func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}

// WithCORS applies the configured origin allowlist to every route.
// A "*" entry echoes the request origin, since credentialed responses
// may not carry a wildcard.
func WithCORS(cfg *config.Config, h nethttp.Handler) nethttp.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{nethttp.MethodGet, nethttp.MethodPost},
		AllowCredentials: true,
	}
	if slices.Contains(cfg.AllowedOrigins, "*") {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = cfg.AllowedOrigins
	}
	return cors.New(opts).Handler(h)
}
