// Package router wires HTTP routes to their handlers.
package router

import (
	"locsync/internal/handler"
	"locsync/internal/i18n"
	"locsync/internal/middleware"
	"locsync/internal/types"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

func NewRouter(serverHandler *handler.Server, configManager types.ConfigManager) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Register global middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger(configManager.GetLogConfig()))
	router.Use(middleware.CORS(configManager.GetCORSConfig()))
	router.Use(middleware.RateLimiter(configManager.GetPerformanceConfig()))

	registerSystemRoutes(router, serverHandler)
	registerAPIRoutes(router, serverHandler, configManager)

	return router
}

// registerSystemRoutes registers system-level routes
func registerSystemRoutes(router *gin.Engine, serverHandler *handler.Server) {
	router.GET("/health", serverHandler.Health)
}

// registerAPIRoutes registers API routes
func registerAPIRoutes(
	router *gin.Engine,
	serverHandler *handler.Server,
	configManager types.ConfigManager,
) {
	api := router.Group("/api")
	api.Use(i18n.Middleware())
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	api.Use(middleware.Auth(configManager.GetAuthConfig()))

	languages := api.Group("/languages")
	{
		languages.GET("", serverHandler.ListLanguages)
		languages.PUT("/:code/toggle-switcher", serverHandler.ToggleSwitcher)
	}

	translations := api.Group("/translations")
	{
		translations.GET("", serverHandler.ListTranslations)
		translations.POST("/sync-keys", serverHandler.SyncKeys)
		translations.POST("/fill-missing", serverHandler.FillMissing)
		translations.POST("/refine", serverHandler.Refine)
		translations.GET("/tree/:language", serverHandler.Tree)
		translations.GET("/export/:language", serverHandler.Export)
	}

	evaluations := api.Group("/evaluations")
	{
		evaluations.POST("/run", serverHandler.RunEvaluation)
		evaluations.GET("/progress", serverHandler.EvaluationProgress)
		evaluations.POST("/:language/pause", serverHandler.PauseEvaluation)
		evaluations.POST("/:language/reset", serverHandler.ResetEvaluation)
	}

	approvals := api.Group("/approvals")
	{
		approvals.POST("/:language/all", serverHandler.ApproveAll)
		approvals.POST("/:language/quality", serverHandler.ApproveByQuality)
		approvals.POST("/:language/keys", serverHandler.ApproveKeys)
	}

	api.POST("/visibility/sync", serverHandler.SyncVisibility)

	settings := api.Group("/settings")
	{
		settings.GET("", serverHandler.GetSettings)
		settings.PUT("", serverHandler.UpdateSettings)
	}
}
