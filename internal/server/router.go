package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"coursehub/internal/config"
	"coursehub/internal/microservices/http-api/handler"
	"coursehub/internal/microservices/http-api/middleware"
	"coursehub/internal/microservices/http-api/service"
	"coursehub/internal/microservices/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the wired components served by the router
type Deps struct {
	Config     *config.Config
	Verifier   service.IdentityVerifier
	Principals service.PrincipalService
	History    service.HistoryService
	Relay      handler.MessageRelay
	Realtime   *websocket.Handler
	Store      Pinger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", healthHandler(d.Store))

	// websocket auth happens inside the handler so browsers can pass ?token=
	r.GET("/ws", d.Realtime.ServeWS)

	userHandler := handler.NewUserHandler(d.Principals)
	messageHandler := handler.NewMessageHandler(d.History, d.Relay)

	api := r.Group("")
	api.Use(middleware.AuthMiddleware(d.Verifier))
	{
		userHandler.RegisterRoutes(api)
		messageHandler.RegisterRoutes(api)
	}

	if d.Config.AdminRoutesEnabled {
		admin := api.Group("")
		admin.Use(middleware.RequireAdmin(d.Principals))
		{
			userHandler.RegisterAdminRoutes(admin)
			messageHandler.RegisterAdminRoutes(admin)
			admin.GET("/ws/stats", d.Realtime.Stats)
		}
	} else {
		slog.Info("admin_routes_disabled")
	}

	return r
}

func healthHandler(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				slog.Warn("health_check_failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
