package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	defaultDir   = "migrations"
	defaultTable = "schema_migrations"
)

// ErrUnsupportedDialect is returned for stores the SQL files are not written for.
// SQLite databases are created with gorm AutoMigrate instead.
var ErrUnsupportedDialect = errors.New("migrations: only postgres is supported")

type migrator interface {
	Up() error
	Close() (sourceErr error, databaseErr error)
}

var driverFactory = func(db *sql.DB, cfg Config) (database.Driver, error) {
	return postgres.WithInstance(db, &postgres.Config{MigrationsTable: cfg.MigrationsTable})
}

var migratorFactory = func(sourceURL string, driver database.Driver) (migrator, error) {
	return migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
}

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	Dir             string
	MigrationsTable string
	// Dialect of the target database. Empty means postgres.
	Dialect string
	Logger  Logger
}

func (cfg *Config) applyDefaults() {
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = defaultDir
	}
	if strings.TrimSpace(cfg.MigrationsTable) == "" {
		cfg.MigrationsTable = defaultTable
	}
	if cfg.Dialect == "" {
		cfg.Dialect = "postgres"
	}
}

func (cfg Config) info(msg string, args ...any) {
	if cfg.Logger != nil {
		cfg.Logger.Info(msg, args...)
	}
}

func (cfg Config) warn(msg string, args ...any) {
	if cfg.Logger != nil {
		cfg.Logger.Warn(msg, args...)
	}
}

// sourceURL builds a file:// URL for dir with forward slashes and escaping.
func sourceURL(dir string) (string, string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", "", fmt.Errorf("migrations: resolve dir: %w", err)
	}

	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(absDir)}
	return u.String(), absDir, nil
}

// Up applies every pending migration in cfg.Dir. golang-migrate has no context
// support, so cancellation closes the migrator to interrupt it.
func Up(ctx context.Context, db *sql.DB, cfg Config) error {
	if db == nil {
		return fmt.Errorf("migrations: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg.applyDefaults()
	if cfg.Dialect != "postgres" {
		return fmt.Errorf("%w (got %q)", ErrUnsupportedDialect, cfg.Dialect)
	}

	src, absDir, err := sourceURL(cfg.Dir)
	if err != nil {
		return err
	}

	driver, err := driverFactory(db, cfg)
	if err != nil {
		return fmt.Errorf("migrations: postgres driver: %w", err)
	}

	m, err := migratorFactory(src, driver)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}

	var closeOnce sync.Once
	closeMigrator := func() {
		closeOnce.Do(func() {
			srcErr, dbErr := m.Close()
			if srcErr != nil {
				cfg.warn("Migrations source close error", "error", srcErr)
			}
			if dbErr != nil {
				cfg.warn("Migrations db close error", "error", dbErr)
			}
		})
	}
	defer closeMigrator()

	cfg.info("Running SQL migrations", "dir", absDir, "table", cfg.MigrationsTable)

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Up()
	}()

	select {
	case <-ctx.Done():
		closeMigrator()
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, migrate.ErrNoChange) {
			cfg.info("No migrations to apply")
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrations: up: %w", err)
		}
	}

	cfg.info("Migrations applied successfully")
	return nil
}
