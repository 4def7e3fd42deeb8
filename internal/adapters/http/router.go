package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"signalhub/internal/adapters/signal"
	"signalhub/internal/app"
	"signalhub/internal/config"
	"signalhub/internal/storage"
)

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, calllog *storage.CallLog) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	view := &readAPI{orch: orch, calllog: calllog}
	api := r.Group("/api")
	api.GET("/users", view.onlineUsers)
	api.GET("/call-logs", view.callLogs)

	r.GET("/health", view.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ctl := signal.NewController(orch, cfg)
	r.GET("/ws", func(c *gin.Context) {
		ctl.HandleWS(ctx, c)
	})

	return r
}
