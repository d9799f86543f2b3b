package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/metll/metll-backend/internal/log"
	"github.com/metll/metll-backend/pkg/retry"
	"github.com/metll/metll-backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

var ErrDatabaseNotConfigured = errors.New("database is not configured: set DATABASE_URL or POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER and POSTGRES_DB_NAME")

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string // Default: "require" for prod safety
	PingRetry       *retry.Config
}

func NewDBConfig() *DBConfig {
	return &DBConfig{
		MaxIdleConns:    utils.GetEnvPositiveIntOrDefault("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    utils.GetEnvPositiveIntOrDefault("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: utils.GetEnvPositiveDurationOrDefault("DB_CONN_MAX_LIFETIME", time.Minute),
		SSLMode:         "require",
	}
}

// ConnectionSettings is the resolved target of a database connection.
type ConnectionSettings struct {
	Dialect string
	DSN     string
}

// DatabaseProvider hands out the single *gorm.DB of the process. The
// connection is opened on the first call to DB and reused afterwards.
type DatabaseProvider struct {
	logger *log.Logger
	cfg    *DBConfig
	open   func() (*gorm.DB, error)

	once   sync.Once
	opened atomic.Bool
	db     *gorm.DB
	err    error
}

func NewDatabaseProvider(logger *log.Logger, cfg *DBConfig) *DatabaseProvider {
	if cfg == nil {
		cfg = NewDBConfig()
	}

	p := &DatabaseProvider{logger: logger, cfg: cfg}
	p.open = func() (*gorm.DB, error) {
		return NewDatabase(logger, cfg)
	}
	return p
}

// NewStaticDatabaseProvider wraps an already opened handle.
func NewStaticDatabaseProvider(db *gorm.DB, logger *log.Logger) *DatabaseProvider {
	return &DatabaseProvider{
		logger: logger,
		open: func() (*gorm.DB, error) {
			if db == nil {
				return nil, ErrDatabaseNotConfigured
			}
			return db, nil
		},
	}
}

func (p *DatabaseProvider) DB() (*gorm.DB, error) {
	p.once.Do(func() {
		p.db, p.err = p.open()
		if p.err == nil {
			p.opened.Store(true)
		}
	})
	return p.db, p.err
}

// Opened returns the handle if DB has already succeeded, without opening it.
func (p *DatabaseProvider) Opened() *gorm.DB {
	if p == nil || !p.opened.Load() {
		return nil
	}
	return p.db
}

func (p *DatabaseProvider) Close() {
	CloseDatabase(p.Opened(), p.logger)
}

func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = NewDBConfig()
	}

	settings, err := ResolveConnectionSettings(logger, cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialectorFor(settings), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err, "dialect", settings.Dialect)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if settings.Dialect == DialectSQLite {
		// SQLite serialises writers; a single connection keeps :memory: databases shared.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = retry.NewExponentialBackoff(cfg.PingRetry).Execute(ctx, func() error {
		return sqlDB.PingContext(ctx)
	})
	if err != nil {
		logger.Error("Database ping failed", "error", err)
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established successfully", "dialect", settings.Dialect)
	return gdb, nil
}

func dialectorFor(settings *ConnectionSettings) gorm.Dialector {
	if settings.Dialect == DialectSQLite {
		return sqlite.Open(settings.DSN)
	}
	return postgres.Open(settings.DSN)
}

// ResolveConnectionSettings reads DATABASE_URL (or its APP_DATABASE_URL alias)
// and falls back to the POSTGRES_* variables.
func ResolveConnectionSettings(logger *log.Logger, cfg *DBConfig) (*ConnectionSettings, error) {
	databaseURL := sanitizeEnv(GetValueFromEnvironmentVariable("DATABASE_URL", ""))
	source := "DATABASE_URL"
	if databaseURL == "" {
		databaseURL = sanitizeEnv(GetValueFromEnvironmentVariable("APP_DATABASE_URL", ""))
		source = "APP_DATABASE_URL"
	}

	if databaseURL != "" {
		settings, err := parseDatabaseURL(databaseURL)
		if err != nil {
			logger.Error("Invalid database URL", "source", source, "error", err)
			return nil, err
		}
		logger.Info("Using database URL for database connection", "source", source, "dialect", settings.Dialect)
		return settings, nil
	}

	dsn, err := buildDSNFromEnv(logger, cfg)
	if err != nil {
		return nil, err
	}
	return &ConnectionSettings{Dialect: DialectPostgres, DSN: dsn}, nil
}

func parseDatabaseURL(raw string) (*ConnectionSettings, error) {
	lower := strings.ToLower(raw)

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		if _, err := url.Parse(raw); err != nil {
			return nil, fmt.Errorf("invalid postgres URL: %w", err)
		}
		return &ConnectionSettings{Dialect: DialectPostgres, DSN: raw}, nil
	case strings.HasPrefix(lower, "sqlite://"):
		return sqliteSettings(raw[len("sqlite://"):])
	case strings.HasPrefix(lower, "sqlite:"):
		return sqliteSettings(raw[len("sqlite:"):])
	case strings.HasPrefix(lower, "file:"):
		return &ConnectionSettings{Dialect: DialectSQLite, DSN: raw}, nil
	case strings.Contains(lower, "host=") || strings.Contains(lower, "dbname="):
		return &ConnectionSettings{Dialect: DialectPostgres, DSN: raw}, nil
	default:
		return nil, fmt.Errorf("unsupported database URL scheme in %q", redactURL(raw))
	}
}

func sqliteSettings(path string) (*ConnectionSettings, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite database URL is missing a path")
	}
	return &ConnectionSettings{Dialect: DialectSQLite, DSN: path}, nil
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}

func buildDSNFromEnv(logger *log.Logger, cfg *DBConfig) (string, error) {
	host, portStr, user, pass, dbName, ssl := getDatabaseEnvParams()
	if ssl == "" {
		ssl = cfg.SSLMode
	}

	missing := []string{}

	if host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}

	if portStr == "" {
		missing = append(missing, "POSTGRES_PORT")
	}

	if user == "" {
		missing = append(missing, "POSTGRES_USER")
	}

	if dbName == "" {
		missing = append(missing, "POSTGRES_DB_NAME")
	}

	if len(missing) == 4 {
		logger.Error("No database configuration found")
		return "", ErrDatabaseNotConfigured
	}

	if len(missing) > 0 {
		logger.Error("Missing required database environment variables", "missing_vars", strings.Join(missing, ", "))
		return "", fmt.Errorf("%w (missing: %s)", ErrDatabaseNotConfigured, strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		logger.Error("Invalid POSTGRES_PORT", "error", err)
		return "", fmt.Errorf("invalid POSTGRES_PORT %q: %w", portStr, err)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, pass, dbName, ssl,
	)

	logger.Info("Connecting to database",
		"host", host,
		"port", port,
		"user", user,
		"dbname", dbName,
		"sslmode", ssl,
	)
	return dsn, nil
}

func getDatabaseEnvParams() (host, port, user, pass, dbName, ssl string) {
	host = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_HOST", ""))
	port = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_PORT", ""))
	user = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_USER", ""))
	pass = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_PASSWORD", ""))
	dbName = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_DB_NAME", ""))
	ssl = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_SSLMODE", ""))

	return host, port, user, pass, dbName, ssl
}

func sanitizeEnv(v string) string {
	s := strings.TrimSpace(v)

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}

	return s
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		logger.Error("Cannot migrate: db is empty")
		return fmt.Errorf("cannot migrate: db is empty")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database migration completed successfully")

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	} else {
		logger.Info("Database closed successfully")
	}
}
