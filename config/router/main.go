package router

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/metll/metll-backend/internal/log"
	"github.com/metll/metll-backend/pkg/constants"
	"github.com/metll/metll-backend/pkg/ratelimit"
	"github.com/metll/metll-backend/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type MiddlewareConfig struct {
	TimeoutDuration time.Duration
}

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RouterService struct {
	engine            *gin.Engine
	server            *http.Server
	logger            *log.Logger
	rateLimiter       ratelimit.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
	redisClient       *redis.Client
	middlewareConfig  *MiddlewareConfig
	metricsRegistry   *prometheus.Registry

	handlerToControllerMap map[string]*RESTController
	rateLimitOverrides     map[string]ratelimit.RateLimiter
}

type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

func CreateRouterService(logger *log.Logger, cache Cache, routerConfig *RouterConfig) *RouterService {
	if mode, ok := os.LookupEnv("GIN_MODE"); ok && mode != "" {
		logger.Info("Setting Gin mode", "mode", mode)
		gin.SetMode(mode)
	}

	requestTimeout := routerConfig.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = constants.DefaultRequestTimeout
	}

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())

	if utils.IsTracingEnabled() {
		ginRouter.Use(otelgin.Middleware(utils.OTelServiceName()))
		logger.Info("Tracing middleware enabled")
	}

	// SECURITY: Gin trusts all proxies by default, which makes ClientIP() depend
	// on potentially spoofed X-Forwarded-For headers. Disable trust by default
	// and require explicit configuration via TRUSTED_PROXIES.
	trustedProxies := parseTrustedProxiesEnv(os.Getenv("TRUSTED_PROXIES"))
	if err := ginRouter.SetTrustedProxies(trustedProxies); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; disabling trusted proxies", "error", err)
		_ = ginRouter.SetTrustedProxies(nil)
	} else if trustedProxies == nil {
		logger.Info("Trusted proxies disabled (TRUSTED_PROXIES not set)")
	}

	var redisClient *redis.Client
	if cache != nil {
		if provider, ok := cache.(RedisClientProvider); ok {
			redisClient = provider.GetClient()
		}
	}

	rs := &RouterService{
		engine:            ginRouter,
		logger:            logger,
		rateLimitRequests: routerConfig.RateLimitRequests,
		rateLimitWindow:   routerConfig.RateLimitWindow,
		redisClient:       redisClient,
		middlewareConfig:  &MiddlewareConfig{TimeoutDuration: requestTimeout},

		rateLimitOverrides:     make(map[string]ratelimit.RateLimiter),
		handlerToControllerMap: make(map[string]*RESTController),
	}

	rs.initRateLimiting()

	// Observability (opt-out): /metrics
	rs.mountMetrics()

	ginRouter.Use(rs.securityHeadersMiddleware())
	ginRouter.Use(rs.maxBodySizeMiddleware())
	ginRouter.Use(rs.corsMiddleware())
	ginRouter.Use(rs.correlationIDMiddleware())
	ginRouter.Use(rs.loggerInjectionMiddleware())
	ginRouter.Use(rs.requestLoggingMiddleware())
	ginRouter.Use(rs.rateLimitMiddleware())
	ginRouter.Use(rs.timeoutMiddleware())

	ginRouter.HandleMethodNotAllowed = true
	ginRouter.RedirectTrailingSlash = true

	ginRouter.NoRoute(func(c *gin.Context) {
		GetLogger(c).Warn("Route not found", "path", c.Request.URL.Path)
		c.JSON(http.StatusNotFound, NotFoundResult("API endpoint not found").ToJSON())
	})

	ginRouter.NoMethod(func(c *gin.Context) {
		GetLogger(c).Warn("Method not allowed", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.JSON(http.StatusMethodNotAllowed, ErrorResult(http.StatusMethodNotAllowed, "Method not allowed", nil).ToJSON())
	})

	rs.server = &http.Server{
		Addr:    ":" + constants.DefaultHTTPPort,
		Handler: ginRouter,

		// Server-side timeouts are the safe way to enforce request time limits.
		// Gin's Context is not goroutine-safe, so we avoid running handlers in
		// a separate goroutine to implement timeouts.
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       requestTimeout,
		WriteTimeout:      requestTimeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized")
	return rs
}

func parseTrustedProxiesEnv(v string) []string {
	s := strings.TrimSpace(v)
	if s == "" {
		// Disable trusted proxies: ClientIP() will use RemoteAddr.
		return nil
	}
	if s == "*" {
		// Explicit escape hatch for local/dev.
		return []string{"0.0.0.0/0", "::/0"}
	}
	parts := strings.Split(s, ",")
	proxies := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			proxies = append(proxies, p)
		}
	}
	if len(proxies) == 0 {
		return nil
	}
	return proxies
}

func (routerService *RouterService) initRateLimiting() {
	if routerService.rateLimitRequests <= 0 {
		routerService.rateLimitRequests = constants.DefaultRateLimitRequests
	}
	if routerService.rateLimitWindow <= 0 {
		routerService.rateLimitWindow = constants.DefaultRateLimitWindow()
	}

	requests := routerService.rateLimitRequests
	window := routerService.rateLimitWindow

	redisClient := routerService.redisClient

	if redisClient != nil {
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			routerService.logger.Warn("Failed to connect to Redis for rate limiting, falling back to in-memory", "error", err)
			redisClient = nil
			routerService.redisClient = nil
		}
	}

	routerService.rateLimiter = ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: requests,
		Window:   window,
		Redis:    redisClient,
		Logger:   routerService.logger,
	})

	if redisClient != nil {
		routerService.logger.Info("Rate limiting initialized with Redis",
			"requests", requests,
			"window", window)
	} else {
		routerService.logger.Info("Rate limiting initialized with in-memory limiter",
			"requests", requests,
			"window", window)
	}
}

// NewRateLimiter builds a limiter sharing the router's backing store (Redis when
// available, in-memory otherwise). Used for per-controller and per-handler overrides.
func (routerService *RouterService) NewRateLimiter(requests int, window time.Duration) ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: requests,
		Window:   window,
		Redis:    routerService.redisClient,
		Logger:   routerService.logger,
	})
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

func (routerService *RouterService) GetLogger(c *RequestContext) *log.Logger {
	return routerService.logger.WithCorrelationID(c.Request.Context())
}

// MetricsRegisterer returns the registry behind /metrics, or nil when metrics are disabled.
func (routerService *RouterService) MetricsRegisterer() prometheus.Registerer {
	if routerService.metricsRegistry == nil {
		return nil
	}
	return routerService.metricsRegistry
}

func (routerService *RouterService) Cleanup() {
	if routerService.rateLimiter != nil {
		if err := routerService.rateLimiter.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiter", "error", err)
		}
	}
	routerService.logger.Info("Router service cleanup completed")
}

func (routerService *RouterService) MountController(controller *RESTController) {
	routerService.logger.Info("Mounting controller",
		"name", controller.name,
		"path", controller.mountPoint,
		"version", controller.version,
	)

	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"handlers", controller.handlerCount,
	)
}

func listenPort() string {
	for _, key := range []string{"PORT", "APP_PORT"} {
		if port := utils.GetEnvTrimmed(key); port != "" {
			return port
		}
	}
	return constants.DefaultHTTPPort
}

func (routerService *RouterService) RunHTTPServer() error {
	addr := ":" + listenPort()
	routerService.server.Addr = addr

	routerService.logger.Info("Starting HTTP server", "addr", addr)

	if err := routerService.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		routerService.logger.Error("Failed to start HTTP server", "error", err)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server gracefully...")
	return routerService.server.Shutdown(ctx)
}

func (routerService *RouterService) correlationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Correlation-ID")
		if id == "" {
			id = log.GenerateCorrelationID()
		}
		ctx := context.WithValue(c.Request.Context(), log.CorrelatedIDKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Correlation-ID", id)
		c.Next()
	}
}

func (routerService *RouterService) loggerInjectionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlatedLogger := routerService.logger.WithCorrelationID(c.Request.Context())
		ctx := context.WithValue(c.Request.Context(), log.LoggerKeyForContext, correlatedLogger)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (routerService *RouterService) requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		GetLogger(c).Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}

func (routerService *RouterService) securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if shouldSetHSTS(c) {
			h.Set("Strict-Transport-Security", buildHSTSValue())
		}
		c.Next()
	}
}

func shouldSetHSTS(c *gin.Context) bool {
	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))
	enabled := utils.GetEnvBoolOrDefault("HSTS_ENABLED", appEnv == "production" || appEnv == "prod")

	if !enabled {
		return false
	}

	if c.Request.TLS != nil {
		return true
	}
	// Common setup when TLS is terminated at a reverse proxy.
	proto := strings.ToLower(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")))
	return proto == "https"
}

func buildHSTSValue() string {
	maxAge := utils.GetEnvPositiveIntOrDefault("HSTS_MAX_AGE", 31536000)

	value := fmt.Sprintf("max-age=%d", maxAge)
	if utils.GetEnvBoolOrDefault("HSTS_INCLUDE_SUBDOMAINS", true) {
		value += "; includeSubDomains"
	}
	return value
}

func (routerService *RouterService) maxBodySizeMiddleware() gin.HandlerFunc {
	// Default: 1 MiB. Adjust via MAX_REQUEST_BODY_BYTES.
	maxBytes := int64(utils.GetEnvPositiveIntOrDefault("MAX_REQUEST_BODY_BYTES", 1<<20))

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResult(
				http.StatusRequestEntityTooLarge,
				"Request payload too large",
				nil,
			).ToJSON())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func parseAllowedOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (routerService *RouterService) corsMiddleware() gin.HandlerFunc {
	allowedOrigins := parseAllowedOrigins(os.Getenv("CORS_ALLOWED_ORIGIN"))
	if len(allowedOrigins) == 0 {
		routerService.logger.Warn("CORS_ALLOWED_ORIGIN not set; cross-origin requests will not receive CORS headers")
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		originAllowed := false
		for _, allowedOrigin := range allowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				originAllowed = true
				break
			}
		}

		if !originAllowed {
			routerService.logger.Warn("CORS origin not allowed", "origin", origin)
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Vary", "Origin")
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Accept, Origin, Cache-Control, X-Requested-With, X-Correlation-ID")
		h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (routerService *RouterService) timeoutMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), routerService.middlewareConfig.TimeoutDuration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		// Important: do NOT call c.Next() in a goroutine.
		// Gin's Context is not safe for concurrent use.
		c.Next()

		// If the handler chain completed but exceeded the deadline and nothing
		// was written, return a 408. Enforcement mid-flight is handled by the
		// http.Server Read/WriteTimeouts.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			GetLogger(c).Warn("Request timeout detected")
			c.AbortWithStatusJSON(http.StatusRequestTimeout, ErrorResult(
				http.StatusRequestTimeout,
				"Request timeout",
				nil,
			).ToJSON())
		}
	}
}

// limiterFor resolves the limiter for the matched route. Handler overrides win
// over controller overrides, which win over the router default.
func (routerService *RouterService) limiterFor(c *gin.Context) ratelimit.RateLimiter {
	handlerKey := routerService.keyForPathAndMethod(c.FullPath(), c.Request.Method)

	if limiter, ok := routerService.rateLimitOverrides[handlerKey]; ok {
		return limiter
	}

	if controller, ok := routerService.handlerToControllerMap[handlerKey]; ok && controller != nil {
		if limiter, ok := routerService.rateLimitOverrides[controller.mountPoint]; ok {
			return limiter
		}
	}

	return routerService.rateLimiter
}

func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		usedLimiter := routerService.limiterFor(c)
		if usedLimiter == nil {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		key := fmt.Sprintf("%s:%s:%s", c.Request.Method, c.FullPath(), clientIP)
		limit, window := usedLimiter.GetLimitDetails()

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", window.String())

		limited, err := usedLimiter.IsLimited(c.Request.Context(), key)
		if err != nil {
			// Fail open: an unavailable limiter store must not take the API down.
			GetLogger(c).Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}

		if limited {
			GetLogger(c).Warn("Rate limit exceeded", "client_ip", clientIP, "path", c.FullPath())
			retryAfterSeconds := int(math.Ceil(window.Seconds()))
			if retryAfterSeconds < 1 {
				retryAfterSeconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
				Limit:      limit,
				Window:     window.String(),
				RetryAfter: strconv.Itoa(retryAfterSeconds),
			}).ToJSON())
			return
		}

		c.Next()
	}
}
