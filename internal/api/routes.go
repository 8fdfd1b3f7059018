package api

import (
	"imgvault/internal/api/handlers"
	"imgvault/internal/api/middleware"
	"imgvault/internal/config"
	"imgvault/internal/service"

	"github.com/gin-gonic/gin"
)

// Router holds the HTTP router and dependencies
type Router struct {
	engine        *gin.Engine
	config        *config.Config
	imageHandler  *handlers.ImageHandler
	avatarHandler *handlers.AvatarHandler
	quotaHandler  *handlers.QuotaHandler
	healthHandler *handlers.HealthHandler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	cfg *config.Config,
	content service.ContentService,
	avatars service.AvatarService,
	quota service.QuotaService,
	health service.HealthService,
) *Router {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := &Router{
		engine:        gin.New(),
		config:        cfg,
		imageHandler:  handlers.NewImageHandler(content, cfg),
		avatarHandler: handlers.NewAvatarHandler(avatars),
		quotaHandler:  handlers.NewQuotaHandler(quota, &cfg.Quota),
		healthHandler: handlers.NewHealthHandler(health),
	}

	router.setupMiddleware()
	router.setupRoutes()

	return router
}

// setupMiddleware configures all middleware
func (r *Router) setupMiddleware() {
	r.engine.Use(gin.Logger())
	r.engine.Use(gin.Recovery())

	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CORS(r.config))

	// Multipart framing needs headroom over the per-image byte limit
	r.engine.Use(middleware.RequestSizeLimit(r.config.Image.MaxUploadBytes + 1<<20))
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthHandler.Health)

	v1 := r.engine.Group("/api/v1")
	v1.Use(middleware.RequireOwner())
	{
		images := v1.Group("/images")
		{
			images.POST("", r.imageHandler.Upload)
			images.POST("/delete", r.imageHandler.Delete)
		}

		profile := v1.Group("/profile")
		{
			profile.PUT("/avatar", r.avatarHandler.Replace)
			profile.DELETE("/avatar", r.avatarHandler.Remove)
		}

		v1.GET("/quota", r.quotaHandler.Usage)
	}
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
