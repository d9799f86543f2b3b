package config

import (
	"context"
	"time"

	"github.com/metll/metll-backend/config/router"
	"github.com/metll/metll-backend/internal/log"
	"github.com/metll/metll-backend/internal/models"
	"github.com/metll/metll-backend/pkg/constants"
	"github.com/metll/metll-backend/pkg/utils"
)

type ApplicationConfig struct {
	Database        *DatabaseProvider
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	TracingShutdown func(context.Context) error
	AutoMigrate     bool
}

type AppConfig struct {
	RateLimitRequests         int
	RateLimitWindow           time.Duration
	RequestTimeout            time.Duration
	WaitlistRateLimitRequests int
	APIBaseURL                string
	PingMessage               string
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		RateLimitRequests:         utils.GetEnvPositiveIntOrDefault("RATE_LIMIT_REQUESTS", constants.DefaultRateLimitRequests),
		RateLimitWindow:           utils.GetEnvPositiveDurationOrDefault("RATE_LIMIT_WINDOW", constants.DefaultRateLimitWindow()),
		RequestTimeout:            utils.GetEnvPositiveDurationOrDefault("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
		WaitlistRateLimitRequests: utils.GetEnvPositiveIntOrDefault("WAITLIST_RATE_LIMIT_REQUESTS", constants.DefaultWaitlistRateLimitRequests),
		APIBaseURL:                utils.GetEnvTrimmed("API_BASE_URL"),
		PingMessage:               utils.GetEnvTrimmedOrDefault("PING_MESSAGE", "ping"),
	}
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.Database != nil {
		ac.Database.Close()
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

// OpenDatabase returns the process database handle, opening it on first use.
// With AutoMigrate set the schema is synced the first time it is opened.
func (ac *ApplicationConfig) OpenDatabase() (*DatabaseProvider, error) {
	alreadyOpen := ac.Database.Opened() != nil

	db, err := ac.Database.DB()
	if err != nil {
		return nil, err
	}

	if ac.AutoMigrate && !alreadyOpen {
		if err := AutoMigrate(ac.Logger, db, models.ModelRegistry...); err != nil {
			return nil, err
		}
	}

	return ac.Database, nil
}

// LoadApplicationConfiguration prepares everything except the database
// connection, which is opened when the first consumer asks for it.
func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	appConfig := NewAppConfig()
	cache := NewCacheConfig().NewCacheOrNil(logger)

	routerService := router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
	})

	if appConfig.APIBaseURL != "" {
		logger.Info("API base URL configured", "api_base_url", appConfig.APIBaseURL)
	}

	logger.Info("Application configuration loaded successfully")

	return &ApplicationConfig{
		Database:        NewDatabaseProvider(logger, NewDBConfig()),
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Config:          appConfig,
		TracingShutdown: tracingShutdown,
		AutoMigrate:     autoMigrate,
	}, nil
}
