// Package container assembles the dependency injection container.
package container

import (
	"locsync/internal/aiservice"
	"locsync/internal/app"
	"locsync/internal/config"
	"locsync/internal/db"
	"locsync/internal/handler"
	"locsync/internal/httpclient"
	"locsync/internal/pipeline"
	"locsync/internal/router"
	"locsync/internal/services"
	"locsync/internal/store"

	"go.uber.org/dig"
	"gorm.io/gorm"
)

// BuildContainer creates and configures the dependency injection container.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		// Configuration
		config.NewSystemSettingsManager,
		config.NewManager,

		// Infrastructure
		store.NewStore,
		db.NewDB,
		httpclient.NewManager,

		// Services
		func(gormDB *gorm.DB) *services.TranslationService {
			return services.NewTranslationService(gormDB, db.ReadDB)
		},
		services.NewLanguageService,
		services.NewProgressService,

		// AI backend client and its interface bindings
		func(sm *config.SystemSettingsManager) aiservice.SettingsProvider { return sm },
		aiservice.NewClient,
		func(c *aiservice.Client) aiservice.Evaluator { return c },
		func(c *aiservice.Client) aiservice.Translator { return c },

		// Pipeline
		pipeline.NewKeySynchronizer,
		pipeline.NewTranslationBatchDispatcher,
		pipeline.NewEvaluationOrchestrator,
		pipeline.NewVisibilitySync,
		pipeline.NewApprovalGate,
		pipeline.NewStuckJobDetector,

		// HTTP layer
		handler.NewServer,
		router.NewRouter,

		// Application
		app.NewApp,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}
