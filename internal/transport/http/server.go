package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/arangam-server/internal/auth"
	"github.com/vovakirdan/arangam-server/internal/config"
	"github.com/vovakirdan/arangam-server/internal/core"
	"github.com/vovakirdan/arangam-server/internal/store"
)

// NewServer builds the HTTP server: REST routes under /api, the /ws socket
// endpoint and /health.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	wsHandler := NewWSHandler(hub, authService, cfg.MaxMessageBytes, cfg.RateLimitPerMinute, logger)
	router.GET("/ws", gin.WrapH(wsHandler))

	apiHandlers := NewAPIHandlers(authService, hub, logger)
	userHandlers := NewUserHandlers(st, hub, logger)
	roomHandlers := NewRoomHandlers(st, hub, cfg.HistoryLimit, logger)
	messageHandlers := NewMessageHandlers(st, hub, logger)

	api := router.Group("/api")
	{
		api.POST("/auth/signup", apiHandlers.Signup)
		api.POST("/auth/login", apiHandlers.Login)
		api.GET("/auth/check-username/:username", apiHandlers.CheckUsername)

		protected := api.Group("")
		protected.Use(AuthMiddleware(authService, logger))
		{
			protected.GET("/auth/me", apiHandlers.Me)

			protected.GET("/users", userHandlers.ListUsers)
			protected.GET("/users/blocked", userHandlers.Blocked)
			protected.POST("/users/block", userHandlers.Block)
			protected.POST("/users/unblock", userHandlers.Unblock)
			protected.GET("/users/favourites", userHandlers.Favourites)
			protected.POST("/users/favourites/add", userHandlers.AddFavourite)
			protected.POST("/users/favourites/remove", userHandlers.RemoveFavourite)
			protected.GET("/users/:id", userHandlers.GetUser)

			protected.GET("/rooms", roomHandlers.ListRooms)
			protected.GET("/rooms/global", roomHandlers.GlobalRoom)
			protected.POST("/rooms/private", roomHandlers.PrivateRoom)
			protected.POST("/rooms/group", roomHandlers.CreateGroup)
			protected.GET("/rooms/:id", roomHandlers.GetRoom)
			protected.DELETE("/rooms/:id", roomHandlers.DeleteGroup)
			protected.GET("/rooms/:id/messages", roomHandlers.History)
			protected.POST("/rooms/:id/members", roomHandlers.AddMembers)
			protected.DELETE("/rooms/:id/members/:userId", roomHandlers.RemoveMember)
			protected.POST("/rooms/:id/leave", roomHandlers.LeaveGroup)

			protected.DELETE("/messages/:id", messageHandlers.DeleteMessage)
			protected.POST("/messages/bulk-delete", messageHandlers.BulkDelete)
			protected.POST("/messages/:id/read", messageHandlers.MarkRead)
		}
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
