package redisclient

import (
	"github.com/redis/go-redis/v9"

	"taskhub/pkg/config"
)

// New builds a go-redis client from config. The client lazily connects,
// callers that need a liveness check should Ping it themselves.
func New(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
