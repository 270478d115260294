package http

import (
	"github.com/gin-gonic/gin"

	"github.com/pharmalens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(BasicAuthMiddleware(cfg.Auth.Users))
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/:id", handler.GetProduct)
		}

		stats := v1.Group("/stats")
		{
			stats.GET("/groups/:field", handler.GroupStats)
			stats.GET("/prices", handler.PriceStats)
		}

		observations := v1.Group("/observations")
		{
			observations.GET("", handler.ListObservations)
			observations.POST("", handler.CreateObservation)
			observations.DELETE("/:id", handler.DeleteObservation)
		}

		v1.POST("/import", handler.ImportProducts)
	}

	return router
}
