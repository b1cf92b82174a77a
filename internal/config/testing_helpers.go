package config

import (
	"locsync/internal/types"
)

// MockConfig implements types.ConfigManager for testing
type MockConfig struct {
	AuthKeyValue string
	DSN          string
	AIService    types.AIServiceConfig
}

// IsMaster returns mock master mode
func (m *MockConfig) IsMaster() bool { return true }

// IsDebugMode returns mock debug mode
func (m *MockConfig) IsDebugMode() bool { return false }

// GetAuthConfig returns mock auth configuration
func (m *MockConfig) GetAuthConfig() types.AuthConfig {
	return types.AuthConfig{Key: m.AuthKeyValue}
}

// GetCORSConfig returns mock CORS configuration
func (m *MockConfig) GetCORSConfig() types.CORSConfig {
	return types.CORSConfig{
		Enabled:          false,
		AllowedOrigins:   []string{},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}
}

// GetPerformanceConfig returns mock performance configuration
func (m *MockConfig) GetPerformanceConfig() types.PerformanceConfig {
	return types.PerformanceConfig{MaxConcurrentRequests: 100}
}

// GetLogConfig returns mock log configuration
func (m *MockConfig) GetLogConfig() types.LogConfig {
	return types.LogConfig{
		Level:      "info",
		Format:     "text",
		EnableFile: false,
		FilePath:   "./data/logs/app.log",
	}
}

// GetDatabaseConfig returns mock database configuration
func (m *MockConfig) GetDatabaseConfig() types.DatabaseConfig {
	dsn := m.DSN
	if dsn == "" {
		dsn = ":memory:"
	}
	return types.DatabaseConfig{DSN: dsn}
}

// GetAIServiceConfig returns mock AI service configuration
func (m *MockConfig) GetAIServiceConfig() types.AIServiceConfig {
	if m.AIService.BaseURL != "" {
		return m.AIService
	}
	return types.AIServiceConfig{BaseURL: "http://localhost:9999", APIKey: "test-service-key"}
}

// GetRedisDSN returns mock Redis DSN
func (m *MockConfig) GetRedisDSN() string { return "" }

// GetEffectiveServerConfig returns mock server configuration
func (m *MockConfig) GetEffectiveServerConfig() types.ServerConfig {
	return types.ServerConfig{
		IsMaster:                true,
		Port:                    3002,
		Host:                    "0.0.0.0",
		ReadTimeout:             60,
		WriteTimeout:            120,
		IdleTimeout:             120,
		GracefulShutdownTimeout: 10,
	}
}

// Validate always succeeds for the mock
func (m *MockConfig) Validate() error { return nil }

// DisplayServerConfig is a no-op for the mock
func (m *MockConfig) DisplayServerConfig() {}

// ReloadConfig is a no-op for the mock
func (m *MockConfig) ReloadConfig() error { return nil }
