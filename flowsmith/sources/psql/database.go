package psql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flowsmith/flowsmith/config"
	"flowsmith/flowsmith/sources/psql/models"
	"flowsmith/flowsmith/utils/logging"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the store selected by DB_DRIVER and migrates the schema.
func NewDatabase(ctx context.Context, cfg config.Config) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DBURL)
	case "postgres", "":
		dialector = postgres.Open(postgresDSN(cfg.DBURL, cfg.DBName))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(zap.NewStdLog(logging.AppLogger), logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.DBDriver == "sqlite" && strings.Contains(cfg.DBURL, ":memory:") {
		// every new connection to :memory: is a fresh, empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logging.AppLogger.Info("Connected to database",
		zap.String("driver", dialector.Name()),
		zap.String("name", cfg.DBName),
	)

	// Auto-migrate models (automatic schema creation)
	err = db.WithContext(ctx).
		AutoMigrate(
			&models.User{},
			&models.ChatMessage{},
			&models.Workflow{},
			&models.StatusCheck{},
		)
	if err != nil {
		return nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}

	return &Database{DB: db}, nil
}

// postgresDSN appends dbname to a key=value DSN that lacks one. URL style
// DSNs carry the database in their path and are used as given.
func postgresDSN(url, name string) string {
	if name == "" || strings.Contains(url, "://") || strings.Contains(url, "dbname=") {
		return url
	}
	return strings.TrimSpace(url) + " dbname=" + name
}

// Ping reports whether the store is reachable.
func (db *Database) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *Database) Close() {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return
	}
	sqlDB.Close()
}
