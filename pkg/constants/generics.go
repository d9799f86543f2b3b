package constants

import "time"

// Default rate limiting configuration
const (
	// DefaultRateLimitRequests is the default number of requests allowed per time window
	DefaultRateLimitRequests = 100
	// DefaultRateLimitWindowMinutes is the default time window for rate limiting
	DefaultRateLimitWindowMinutes = 1
	// DefaultWaitlistRateLimitRequests caps signups per client IP per window
	DefaultWaitlistRateLimitRequests = 30
)

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultHTTPPort       = "8080"
)

// DefaultRateLimitWindow returns the default rate limit window duration
func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}
