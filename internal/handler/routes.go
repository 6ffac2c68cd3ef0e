package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/eventstream/pulse/internal/middleware"
)

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health       *HealthHandler
	Messages     *MessageHandler
	Keys         *KeyHandler
	Auth         *AdminAuthHandler
	AdminApps    *AdminAppHandler
	AdminMessage *AdminMessageHandler
	AdminKeys    *AdminKeyHandler
	SSE          *SSEHandler
}

// SetupRoutes registers all routes.
func SetupRoutes(router *gin.Engine, h *Handlers, tokenMw *middleware.TokenMiddleware, jwtMw *middleware.JWTMiddleware) {
	router.GET("/v1/health", h.Health.GetHealth)

	// Read API for client apps and server-side consumers (shared API token)
	api := router.Group("/api")
	api.Use(tokenMw.Handle())
	{
		api.GET("/messages", h.Messages.ListActive)
		api.POST("/messages/:id/impression", h.Messages.RecordImpression)
		api.POST("/messages/:id/tap", h.Messages.RecordTap)

		api.GET("/keys", h.Keys.ListAvailable)
		api.GET("/keys/:name/value", h.Keys.GetValue)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", h.Auth.Login)
	// SSE authenticates with ?token= since EventSource cannot send headers
	admin.GET("/sse", h.SSE.Stream)
	admin.Use(jwtMw.Handle())
	{
		// Target apps
		admin.GET("/apps", h.AdminApps.List)
		admin.POST("/apps", h.AdminApps.Create)
		admin.PUT("/apps/:id", h.AdminApps.Update)

		// Messages
		admin.GET("/messages", h.AdminMessage.List)
		admin.POST("/messages", h.AdminMessage.Create)
		admin.POST("/messages/bulk/:action", h.AdminMessage.Bulk)
		admin.GET("/messages/:id", h.AdminMessage.Get)
		admin.PUT("/messages/:id", h.AdminMessage.Update)
		admin.DELETE("/messages/:id", h.AdminMessage.Delete)
		admin.GET("/messages/:id/stats", h.AdminMessage.Stats)
		admin.POST("/messages/:id/image", h.AdminMessage.UploadImage)

		// API keys
		admin.GET("/keys", h.AdminKeys.List)
		admin.POST("/keys", h.AdminKeys.Create)
		admin.GET("/keys/:id", h.AdminKeys.Get)
		admin.PUT("/keys/:id", h.AdminKeys.Update)
		admin.DELETE("/keys/:id", h.AdminKeys.Delete)
	}
}
