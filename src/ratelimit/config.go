package ratelimit

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Backend        string        `envconfig:"RATE_LIMIT_BACKEND" default:"memory"` // memory | redis
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	AdminLimit     int           `envconfig:"ADMIN_SETUP_RATE_LIMIT" default:"5"`
	AdminWindow    time.Duration `envconfig:"ADMIN_SETUP_RATE_WINDOW" default:"15m"`
	TrustedProxies []string      `envconfig:"TRUSTED_PROXIES"` // IPs or CIDRs allowed to set forwarding headers
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
