package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-redis/redis/v8"
)

type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

// RedisCache owns the pooled go-redis client shared by the rate limiter and health check.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg *Config) (*RedisCache, error) {
	if cfg == nil || cfg.Host == "" {
		return nil, fmt.Errorf("redis: host is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", client.Options().Addr, err)
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetClient exposes the pooled client for the Redis-backed rate limiter.
func (c *RedisCache) GetClient() *redis.Client {
	return c.client
}
