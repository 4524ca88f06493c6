package db

import (
	"fmt"
	"strings"

	"catasto_app_go/config"
	applog "catasto_app_go/logger"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize opens the configured store. SQLite runs in WAL mode behind a
// single connection so write transactions are serialized.
func Initialize(cfg *config.Config) error {
	// Determine log level based on environment
	logLevel := logger.Info
	if cfg.Environment == "production" {
		logLevel = logger.Warn
	}

	dialector, singleWriter, err := dialectorFor(cfg)
	if err != nil {
		return err
	}

	conn, err := open(dialector, logLevel)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if singleWriter {
		sqlDB, err := conn.DB()
		if err != nil {
			return fmt.Errorf("failed to get database instance: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	DB = conn
	applog.Log.Info("Database connection established",
		zap.String("driver", cfg.DBDriver),
		zap.String("target", cfg.DSNForLog()),
	)
	return nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, bool, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, false, fmt.Errorf("DATABASE_URL is required for driver %q", cfg.DBDriver)
		}
		return postgres.Open(cfg.DatabaseURL), false, nil
	case config.DriverLibSQL:
		if cfg.TursoDatabaseURL == "" {
			return nil, false, fmt.Errorf("TURSO_DATABASE_URL is required for driver %q", cfg.DBDriver)
		}
		dsn := cfg.TursoDatabaseURL
		if cfg.TursoAuthToken != "" {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "authToken=" + cfg.TursoAuthToken
		}
		return sqlite.New(sqlite.Config{DriverName: "libsql", DSN: dsn}), true, nil
	case config.DriverSQLite, "":
		// Enable WAL mode for better concurrency support
		return sqlite.Open(cfg.DBPath + "?_journal_mode=WAL&_busy_timeout=5000"), true, nil
	default:
		return nil, false, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

func open(dialector gorm.Dialector, logLevel logger.LogLevel) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
}

// OpenMemory opens a private in-memory SQLite database for tests and tooling.
// Every call gets its own database.
func OpenMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:mem_%s?mode=memory&cache=shared", uuid.New().String())
	conn, err := open(sqlite.Open(dsn), logger.Silent)
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return conn, nil
}

// AutoMigrate runs database migrations for the provided models
func AutoMigrate(models ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.AutoMigrate(models...)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	applog.Log.Info("Database migrations completed", zap.Int("models", len(models)))
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
