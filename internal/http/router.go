package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router.
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	// Setup CORS middleware from configuration; default to all origins.
	corsConfig := cors.DefaultConfig()
	if len(handler.cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = handler.cfg.Server.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	// API v1 routes.
	v1 := router.Group("/v1")

	models := v1.Group("/models")
	models.GET("/nearest-water", handler.GetNearestWater)

	v1.GET("/observations", handler.GetObservations)
	v1.GET("/catalogs", handler.GetCatalogs)
	v1.GET("/catalogs/search", handler.SearchCatalog)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	return router
}
