package http

import (
	"github.com/gin-gonic/gin"

	"github.com/jacob-sycoff/tibera-health-backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if cfg.RateLimit.PerIP > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	}

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		items := v1.Group("/items")
		{
			items.POST("", handler.CreateItem)
			items.GET("", handler.ListItems)
			items.PATCH("/:id/servings", handler.UpdateServings)
			items.DELETE("/:id", handler.DeleteItem)
			items.POST("/:id/fix", handler.FixNutrition)
			items.POST("/:id/confirm", handler.ConfirmPick)
		}

		days := v1.Group("/days")
		{
			days.GET("/:date/totals", handler.DailyTotals)
			days.GET("/:date/nutrients/:nutrientId", handler.NutrientBreakdown)
		}
	}

	return router
}
