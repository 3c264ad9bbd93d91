package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nixie-Tech-LLC/playout/internal/engine"
	"github.com/Nixie-Tech-LLC/playout/internal/http/api"
	adminapi "github.com/Nixie-Tech-LLC/playout/internal/http/api/admin/control/endpoints"
	clientapi "github.com/Nixie-Tech-LLC/playout/internal/http/api/tv/endpoints"
	"github.com/Nixie-Tech-LLC/playout/internal/http/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, secretKey string, e *engine.Engine) {
	r.Use(middleware.RequestLogger(), middleware.Metrics())

	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: secretKey,
	},
		adminapi.SyncModule(e),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: secretKey,
	},
		adminapi.ScreenModule(e),
		adminapi.VideoModule(e),
		adminapi.ScheduleModule(e),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/tv",
	},
		clientapi.HeartbeatModule(e),
	)
}
