package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/metll/metll-backend/config/router"
	"github.com/metll/metll-backend/internal/log"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

type Cache interface {
	Ping(ctx context.Context) error
}

// Database exposes the process handle without forcing a connection.
type Database interface {
	Opened() *gorm.DB
}

type HealthStatus struct {
	Database int `json:"database"` // 1 = healthy, 0 = unhealthy/not opened
	Cache    int `json:"cache"`    // 1 = healthy, 0 = unhealthy/not configured
	Uptime   int `json:"uptime"`   // uptime in seconds
}

type Options struct {
	PingMessage string
	APIBaseURL  string
}

type MonitoringController struct {
	db        Database
	logger    *log.Logger
	cache     Cache
	options   Options
	startTime time.Time
}

func NewMonitoringController(db Database, logger *log.Logger, cache Cache, options Options) *router.RESTController {
	if options.PingMessage == "" {
		options.PingMessage = "ping"
	}

	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		options:   options,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {

			const monitoringRequestsPerMinute = 10 // More restrictive than default 100
			monitoringRateLimiter := routerService.NewRateLimiter(monitoringRequestsPerMinute, time.Minute)

			routerService.AddGetHandler(controller, monitoringRateLimiter, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(routerService, c)
			})

			routerService.AddGetHandler(controller, nil, "api/ping", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.ping(c)
			})
		},
	)
}

func (ctrl *MonitoringController) ping(c *router.RequestContext) *router.ServiceResult {
	if ctrl.options.APIBaseURL != "" {
		c.Header("X-API-Base-URL", ctrl.options.APIBaseURL)
	}

	return router.OKResult(nil, ctrl.options.PingMessage)
}

func (ctrl *MonitoringController) healthCheck(
	routerService *router.RouterService,
	c *router.RequestContext,
) *router.ServiceResult {
	logger := routerService.GetLogger(c)
	logger.Debug("Health check endpoint called")

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	healthStatus := ctrl.performHealthChecks(ctx, logger)

	return &router.ServiceResult{
		StatusCode: http.StatusOK,
		Data:       healthStatus,
		Message:    "health check completed",
	}
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Uptime: int(time.Since(ctrl.startTime).Seconds()),
	}

	checkDatabaseConnectivity(ctx, ctrl, &status, logger)

	checkCacheConnectivity(ctx, ctrl, &status, logger)

	return status
}

func checkCacheConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.cache == nil {
		status.Cache = 0 // Cache not configured
		logger.Debug("Cache not configured, cache health check skipped")
		return
	}

	if ctrl.cache.Ping(ctx) == nil {
		status.Cache = 1
		return
	}

	status.Cache = 0
	logger.Error("Cache health check failed")
}

func checkDatabaseConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.checkDatabase(ctx) {
		status.Database = 1
		return
	}

	status.Database = 0
	logger.Error("Database health check failed")
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context) bool {
	if ctrl.db == nil {
		return false
	}

	gdb := ctrl.db.Opened()
	if gdb == nil {
		return false
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return false
	}

	return sqlDB.PingContext(ctx) == nil
}
