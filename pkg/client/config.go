package client

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is read from DIRECTORY_* environment variables, for example
// DIRECTORY_API_URL and DIRECTORY_CACHE_BACKEND.
type Config struct {
	APIURL       string        `envconfig:"API_URL" default:"http://localhost:3001/api"`
	Timeout      time.Duration `envconfig:"TIMEOUT" default:"10s"`
	CacheBackend string        `envconfig:"CACHE_BACKEND" default:"memory"`
	RedisURL     string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	// SessionID scopes redis entries; empty means a fresh session per client.
	SessionID string `envconfig:"SESSION_ID"`
	// BreakerThreshold consecutive outages open the circuit; 0 disables it.
	BreakerThreshold int           `envconfig:"BREAKER_THRESHOLD" default:"5"`
	BreakerCooldown  time.Duration `envconfig:"BREAKER_COOLDOWN" default:"30s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("DIRECTORY", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to read client config: %w", err)
	}
	switch cfg.CacheBackend {
	case CacheMemory, CacheRedis:
	default:
		return cfg, fmt.Errorf("cache backend must be %s or %s, got %q", CacheMemory, CacheRedis, cfg.CacheBackend)
	}
	return cfg, nil
}
