// Package config provides environment configuration and hot-reloadable
// system settings for the translation pipeline.
package config

import (
	"fmt"
	"os"
	"strings"

	"locsync/internal/types"
	"locsync/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Constants for default configuration
const (
	defaultHost                    = "0.0.0.0"
	defaultPort                    = 3002
	defaultReadTimeout             = 60
	defaultWriteTimeout            = 120
	defaultIdleTimeout             = 120
	defaultGracefulShutdownTimeout = 20
	defaultMaxConcurrentRequests   = 100
	minAuthKeyLength               = 16
)

// Manager implements types.ConfigManager backed by environment variables.
type Manager struct {
	config          *Config
	settingsManager *SystemSettingsManager
}

// Config represents the full application configuration read from the environment.
type Config struct {
	Server      types.ServerConfig      `json:"server"`
	Auth        types.AuthConfig        `json:"auth"`
	CORS        types.CORSConfig        `json:"cors"`
	Performance types.PerformanceConfig `json:"performance"`
	Log         types.LogConfig         `json:"log"`
	Database    types.DatabaseConfig    `json:"database"`
	AIService   types.AIServiceConfig   `json:"ai_service"`
	RedisDSN    string                  `json:"redis_dsn"`
	DebugMode   bool                    `json:"debug_mode"`
}

// NewManager creates a new configuration manager.
func NewManager(settingsManager *SystemSettingsManager) (types.ConfigManager, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	manager := &Manager{settingsManager: settingsManager}
	if err := manager.ReloadConfig(); err != nil {
		return nil, err
	}

	return manager, nil
}

// ReloadConfig re-reads the environment into the manager.
func (m *Manager) ReloadConfig() error {
	config := &Config{
		Server: types.ServerConfig{
			Port:                    utils.ParseInteger(os.Getenv("PORT"), defaultPort),
			Host:                    utils.GetEnvOrDefault("HOST", defaultHost),
			IsMaster:                !utils.ParseBoolean(os.Getenv("IS_SLAVE"), false),
			ReadTimeout:             utils.ParseInteger(os.Getenv("SERVER_READ_TIMEOUT"), defaultReadTimeout),
			WriteTimeout:            utils.ParseInteger(os.Getenv("SERVER_WRITE_TIMEOUT"), defaultWriteTimeout),
			IdleTimeout:             utils.ParseInteger(os.Getenv("SERVER_IDLE_TIMEOUT"), defaultIdleTimeout),
			GracefulShutdownTimeout: utils.ParseInteger(os.Getenv("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT"), defaultGracefulShutdownTimeout),
		},
		Auth: types.AuthConfig{
			Key: os.Getenv("AUTH_KEY"),
		},
		CORS: types.CORSConfig{
			Enabled:          utils.ParseBoolean(os.Getenv("ENABLE_CORS"), false),
			AllowedOrigins:   utils.ParseArray(os.Getenv("ALLOWED_ORIGINS"), []string{}),
			AllowedMethods:   utils.ParseArray(os.Getenv("ALLOWED_METHODS"), []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   utils.ParseArray(os.Getenv("ALLOWED_HEADERS"), []string{"*"}),
			AllowCredentials: utils.ParseBoolean(os.Getenv("ALLOW_CREDENTIALS"), false),
		},
		Performance: types.PerformanceConfig{
			MaxConcurrentRequests: utils.ParseInteger(os.Getenv("MAX_CONCURRENT_REQUESTS"), defaultMaxConcurrentRequests),
		},
		Log: types.LogConfig{
			Level:      utils.GetEnvOrDefault("LOG_LEVEL", "info"),
			Format:     utils.GetEnvOrDefault("LOG_FORMAT", "text"),
			EnableFile: utils.ParseBoolean(os.Getenv("LOG_ENABLE_FILE"), false),
			FilePath:   utils.GetEnvOrDefault("LOG_FILE_PATH", "./data/logs/app.log"),
		},
		Database: types.DatabaseConfig{
			DSN: utils.GetEnvOrDefault("DATABASE_DSN", "./data/locsync.db"),
		},
		AIService: types.AIServiceConfig{
			BaseURL: os.Getenv("AI_SERVICE_URL"),
			APIKey:  os.Getenv("AI_SERVICE_KEY"),
		},
		RedisDSN:  os.Getenv("REDIS_DSN"),
		DebugMode: utils.ParseBoolean(os.Getenv("DEBUG_MODE"), false),
	}

	if tovPath := os.Getenv("AI_TOV_PATH"); tovPath != "" {
		content, err := os.ReadFile(tovPath)
		if err != nil {
			logrus.WithError(err).Warnf("Failed to read tone-of-voice file %s, refine requests will omit it", tovPath)
		} else {
			config.AIService.ToneOfVoice = strings.TrimSpace(string(content))
		}
	}

	m.config = config
	return m.Validate()
}

// Validate checks the configuration for obvious misconfiguration.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", config.Server.Port)
	}

	if config.Auth.Key == "" {
		return fmt.Errorf("AUTH_KEY is required")
	}
	if len(config.Auth.Key) < minAuthKeyLength {
		return fmt.Errorf("AUTH_KEY must be at least %d characters", minAuthKeyLength)
	}

	if config.CORS.Enabled && len(config.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("ENABLE_CORS is set but ALLOWED_ORIGINS is empty")
	}

	if config.Performance.MaxConcurrentRequests < 1 {
		return fmt.Errorf("MAX_CONCURRENT_REQUESTS must be at least 1")
	}

	if config.Server.ReadTimeout < 1 || config.Server.WriteTimeout < 1 {
		return fmt.Errorf("server timeouts must be positive")
	}

	return nil
}

// IsMaster returns whether this node coordinates background pipeline services.
func (m *Manager) IsMaster() bool {
	return m.config.Server.IsMaster
}

// IsDebugMode returns whether debug-only endpoints are enabled.
func (m *Manager) IsDebugMode() bool {
	return m.config.DebugMode
}

// GetAuthConfig returns the authentication configuration.
func (m *Manager) GetAuthConfig() types.AuthConfig {
	return m.config.Auth
}

// GetCORSConfig returns the CORS configuration.
func (m *Manager) GetCORSConfig() types.CORSConfig {
	return m.config.CORS
}

// GetPerformanceConfig returns the performance configuration.
func (m *Manager) GetPerformanceConfig() types.PerformanceConfig {
	return m.config.Performance
}

// GetLogConfig returns the logging configuration.
func (m *Manager) GetLogConfig() types.LogConfig {
	return m.config.Log
}

// GetDatabaseConfig returns the database configuration.
func (m *Manager) GetDatabaseConfig() types.DatabaseConfig {
	return m.config.Database
}

// GetAIServiceConfig returns the external AI service endpoint configuration.
func (m *Manager) GetAIServiceConfig() types.AIServiceConfig {
	return m.config.AIService
}

// GetRedisDSN returns the Redis DSN, empty when the memory store is used.
func (m *Manager) GetRedisDSN() string {
	return m.config.RedisDSN
}

// GetEffectiveServerConfig returns the server configuration.
func (m *Manager) GetEffectiveServerConfig() types.ServerConfig {
	return m.config.Server
}

// DisplayServerConfig logs a configuration summary at startup.
func (m *Manager) DisplayServerConfig() {
	config := m.config

	logrus.Info("")
	logrus.Info("======= LocSync Configuration =======")
	logrus.Infof("  Listen:     %s:%d", config.Server.Host, config.Server.Port)
	logrus.Infof("  Role:       %s", map[bool]string{true: "master", false: "slave"}[config.Server.IsMaster])
	logrus.Infof("  Database:   %s", config.Database.DSN)
	if config.RedisDSN != "" {
		logrus.Info("  Store:      redis")
	} else {
		logrus.Info("  Store:      memory")
	}
	if config.AIService.BaseURL != "" {
		logrus.Infof("  AI service: %s (key %s)", config.AIService.BaseURL, utils.MaskAPIKey(config.AIService.APIKey))
	} else {
		logrus.Warn("  AI service: not configured, translation/evaluation runs will fail")
	}
	logrus.Infof("  CORS:       %v", config.CORS.Enabled)
	logrus.Infof("  Log level:  %s", config.Log.Level)
	logrus.Info("=====================================")
	logrus.Info("")
}
