package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/metll/metll-backend/internal/log"
	"github.com/metll/metll-backend/pkg/utils"
)

const (
	AppEnvKey  = "APP_ENV"
	EnvFileKey = "ENV_FILE"
)

// InitializeEnvFile seeds the environment from ENV_FILE (default .env).
// Variables already set in the process win over the file.
func InitializeEnvFile(logger *log.Logger) {
	if utils.GetEnvBoolOrDefault("SKIP_DOTENV", false) {
		logger.Info("Skipping .env file load (SKIP_DOTENV=true)")
		return
	}

	path := utils.GetEnvTrimmedOrDefault(EnvFileKey, ".env")

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("No env file found", "path", path)
			return
		}
		logger.Warn("Failed to load env file", "path", path, "error", err.Error())
		return
	}

	logger.Info("Environment variables loaded from env file", "path", path)
}

func GetValueFromEnvironmentVariable(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func GetAppEnv() string {
	return strings.ToLower(utils.GetEnvTrimmed(AppEnvKey))
}

// ValidateAutoMigrateAllowed keeps gorm AutoMigrate away from shared environments,
// whose schema is owned by the SQL migrations.
func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))

	switch env {
	case "", "dev", "development", "local", "test", "testing":
		return nil
	default:
		return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: \"\", dev, development, local, test, testing)", AppEnvKey, env)
	}
}
