package ratelimit

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	logger "github.com/sirupsen/logrus"
)

// NewStore builds the configured counter store.
func NewStore(config Config) (Store, error) {
	switch config.Backend {
	case BackendMemory, "":
		logger.Warn("[ratelimit] using in-memory store; counters are per process")
		return NewMemoryStore(), nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		return NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unsupported RATE_LIMIT_BACKEND %q", config.Backend)
	}
}
