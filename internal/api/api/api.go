package api

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"meetpoll/cmd/middleware"
	"meetpoll/internal/service"
)

type Routers struct {
	Service      service.Service
	Limiter      *middleware.RateLimiter
	Ping         func(ctx context.Context) error
	ShareBaseURL string
	Mode         string
}

func NewRouters(r *Routers) *ginext.Engine {
	mode := r.Mode
	if mode == "" {
		mode = "release"
	}
	app := ginext.New(mode)

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())

	h := &handler{svc: r.Service, shareBaseURL: r.ShareBaseURL, ping: r.Ping}

	apiGroup := app.Group("/api")
	apiGroup.POST("/events", middleware.RateLimit(r.Limiter), h.createEvent)
	apiGroup.GET("/events/:shareId", h.getEvent)
	apiGroup.GET("/durations", h.durations)
	apiGroup.POST("/events/:shareId/participate", middleware.RateLimit(r.Limiter), h.participate)

	app.GET("/healthz", h.health)

	return app
}
