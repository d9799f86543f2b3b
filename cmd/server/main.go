package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/metll/metll-backend/config"
	"github.com/metll/metll-backend/domain"
	"github.com/metll/metll-backend/internal/log"
)

const shutdownTimeout = 30 * time.Second

func autoMigrateRequested(args []string) bool {
	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "--auto-migrate", "-m":
			return true
		}
	}
	return false
}

func main() {
	logger := log.NewLoggerWithJSONOutput()
	os.Exit(run(logger))
}

func run(logger *log.Logger) int {
	appConfig, err := config.LoadApplicationConfiguration(logger, autoMigrateRequested(os.Args[1:]))
	if err != nil {
		logger.Error("Failed to load application configuration", "error", err.Error())
		return 1
	}
	defer appConfig.Cleanup()

	if err := domain.SetupCoreDomain(appConfig); err != nil {
		logger.Error("Failed to set up waitlist service", "error", err.Error())
		return 1
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := appConfig.RouterService.RunHTTPServer(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logger.Error("Server error", "error", err)
		return 1
	case sig := <-quit:
		logger.Info("Shutdown signal received, shutting down gracefully...", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := appConfig.RouterService.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return 1
	}

	logger.Info("Graceful shutdown completed")
	return 0
}
