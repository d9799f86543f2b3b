package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/metll/metll-backend/internal/log"
	pkgredis "github.com/metll/metll-backend/pkg/redis"
	"github.com/metll/metll-backend/pkg/utils"
)

// Cache is the optional Redis connection. It backs the shared rate limiter
// and is reported by /health.
type Cache interface {
	Ping(ctx context.Context) error
	Close() error
}

var ErrCacheNotConfigured = errors.New("cache host is not configured")

type CacheConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Host:     utils.GetEnvTrimmed("REDIS_HOST"),
		Port:     utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379"),
		Password: utils.GetEnvOrDefault("REDIS_PASSWORD", ""),
		DB:       utils.GetEnvPositiveIntOrDefault("REDIS_DB", 0),
		PoolSize: utils.GetEnvPositiveIntOrDefault("REDIS_POOL_SIZE", 10),
	}
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

func (cc *CacheConfig) NewCache(logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
		DB:       cc.DB,
		PoolSize: cc.PoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("connect cache: %w", err)
	}

	logger.Info("Cache (Redis) connected successfully", "host", cc.Host, "port", cc.Port)
	return cache, nil
}

// NewCacheOrNil never fails: without a reachable Redis the router falls back
// to in-memory rate limiting.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Cache (Redis) is not configured; proceeding without external cache")
		return nil
	}

	cache, err := cc.NewCache(logger)
	if err != nil {
		logger.Error("Failed to create Cache (Redis)", "error", err)
		return nil
	}

	return cache
}

func CloseCache(cache Cache, logger *log.Logger) error {
	if cache == nil {
		return nil
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return err
	}

	logger.Info("Cache connection closed")
	return nil
}
