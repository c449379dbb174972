package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *Handlers) {
	api := r.Group("/api")
	api.Use(SessionMiddleware())

	api.GET("/health", h.Health)

	// Auth
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/session", h.Session)

	// Generation (anonymous allowed)
	api.POST("/generate", h.Generate)
	api.POST("/generate/async", h.GenerateAsync)

	// Jobs
	api.GET("/jobs/:id", h.GetJob)
	api.GET("/jobs", RequireAuth(), h.ListJobs)

	// Releases (owned by the authenticated user)
	releases := api.Group("/releases", RequireAuth())
	releases.GET("", h.ListReleases)
	releases.GET("/:id", h.GetRelease)
	releases.DELETE("/:id", h.DeleteRelease)

	// Search
	api.GET("/search", RequireAuth(), h.Search)

	// Upload (TUS)
	api.POST("/upload/finalize", h.FinalizeUpload)
	api.Any("/upload/tus/*path", h.TUSHandler)

	// Notifications (SSE)
	api.GET("/notifications/stream", h.NotificationStream)

	// Settings
	api.GET("/settings", h.GetSettings)
	api.PUT("/settings", RequireAuth(), h.UpdateSettings)

	// Vendors
	api.GET("/vendors/openai/models", h.GetOpenAIModels)
}
