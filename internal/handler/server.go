// Package handler implements the console API endpoints.
package handler

import (
	"context"
	"net/http"
	"time"

	"locsync/internal/config"
	"locsync/internal/pipeline"
	"locsync/internal/services"
	"locsync/internal/store"
	"locsync/internal/types"
	"locsync/internal/version"

	"github.com/gin-gonic/gin"
	"go.uber.org/dig"
	"gorm.io/gorm"
)

// Server aggregates the dependencies shared by all endpoint handlers.
type Server struct {
	DB              *gorm.DB
	config          types.ConfigManager
	SettingsManager *config.SystemSettingsManager
	TranslationSvc  *services.TranslationService
	LanguageSvc     *services.LanguageService
	ProgressSvc     *services.ProgressService
	Synchronizer    *pipeline.KeySynchronizer
	Dispatcher      *pipeline.TranslationBatchDispatcher
	Orchestrator    *pipeline.EvaluationOrchestrator
	Watchdog        *pipeline.StuckJobDetector
	ApprovalGate    *pipeline.ApprovalGate
	VisibilitySync  *pipeline.VisibilitySync
	Storage         store.Store
}

// ServerParams defines the dependencies for the Server.
type ServerParams struct {
	dig.In
	DB              *gorm.DB
	ConfigManager   types.ConfigManager
	SettingsManager *config.SystemSettingsManager
	TranslationSvc  *services.TranslationService
	LanguageSvc     *services.LanguageService
	ProgressSvc     *services.ProgressService
	Synchronizer    *pipeline.KeySynchronizer
	Dispatcher      *pipeline.TranslationBatchDispatcher
	Orchestrator    *pipeline.EvaluationOrchestrator
	Watchdog        *pipeline.StuckJobDetector
	ApprovalGate    *pipeline.ApprovalGate
	VisibilitySync  *pipeline.VisibilitySync
	Storage         store.Store
}

// NewServer is the constructor for Server, with dependencies injected by dig.
func NewServer(params ServerParams) *Server {
	return &Server{
		DB:              params.DB,
		config:          params.ConfigManager,
		SettingsManager: params.SettingsManager,
		TranslationSvc:  params.TranslationSvc,
		LanguageSvc:     params.LanguageSvc,
		ProgressSvc:     params.ProgressSvc,
		Synchronizer:    params.Synchronizer,
		Dispatcher:      params.Dispatcher,
		Orchestrator:    params.Orchestrator,
		Watchdog:        params.Watchdog,
		ApprovalGate:    params.ApprovalGate,
		VisibilitySync:  params.VisibilitySync,
		Storage:         params.Storage,
	}
}

// Health handles GET /health. It verifies database connectivity so container
// orchestrators can distinguish a wedged instance from a busy one.
func (s *Server) Health(c *gin.Context) {
	payload := gin.H{
		"status":    "healthy",
		"version":   version.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	sqlDB, err := s.DB.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		payload["status"] = "unhealthy"
		payload["database"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, payload)
		return
	}

	payload["database"] = "ok"
	c.JSON(http.StatusOK, payload)
}
