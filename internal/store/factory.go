package store

import (
	"fmt"

	"locsync/internal/types"

	"github.com/sirupsen/logrus"
)

// NewStore creates a Store based on the application configuration.
// A configured REDIS_DSN selects the Redis backend, otherwise the
// in-memory store is used.
func NewStore(configManager types.ConfigManager) (Store, error) {
	redisDSN := configManager.GetRedisDSN()

	if redisDSN == "" {
		logrus.Info("No REDIS_DSN configured, using in-memory store")
		return NewMemoryStore(), nil
	}

	logrus.Info("Using Redis store")
	redisStore, err := NewRedisStore(redisDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return redisStore, nil
}
