package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/metll/metll-backend/config"
	"github.com/metll/metll-backend/internal/log"
	"github.com/metll/metll-backend/pkg/migrations"
	"github.com/metll/metll-backend/pkg/utils"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		if err := runMigrations(logger); err != nil {
			logger.Error("Database migration failed", "error", err.Error())
			os.Exit(1)
		}

		logger.Info("Database migrations completed")
		return

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func runMigrations(logger *log.Logger) error {
	settings, err := config.ResolveConnectionSettings(logger, config.NewDBConfig())
	if err != nil {
		return err
	}

	db, err := config.NewDatabase(logger, config.NewDBConfig())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get SQL DB instance: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close SQL DB after migration", "error", err.Error())
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	return migrations.Up(ctx, sqlDB, migrations.Config{
		Dir:     utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", "migrations"),
		Dialect: settings.Dialect,
		Logger:  logger,
	})
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate  Apply SQL migrations from MIGRATIONS_DIR (default: migrations) and exit")
	fmt.Println("  help     Show this message")
}
