package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))

	if v == "" {
		return defaultValue
	}

	return v
}

// GetEnvPositiveIntOrDefault ignores unset, malformed and non-positive values.
func GetEnvPositiveIntOrDefault(key string, defaultValue int) int {
	if parsed, err := strconv.Atoi(GetEnvTrimmed(key)); err == nil && parsed > 0 {
		return parsed
	}

	return defaultValue
}

// GetEnvPositiveDurationOrDefault accepts time.ParseDuration syntax ("30s", "2m").
func GetEnvPositiveDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if parsed, err := time.ParseDuration(GetEnvTrimmed(key)); err == nil && parsed > 0 {
		return parsed
	}

	return defaultValue
}

func GetEnvBoolOrDefault(key string, defaultValue bool) bool {
	if parsed, err := strconv.ParseBool(GetEnvTrimmed(key)); err == nil {
		return parsed
	}

	return defaultValue
}
