package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance
var DB *gorm.DB

// Connect opens the database named by dsn. postgres:// and postgresql:// URLs
// use the PostgreSQL driver; anything else is treated as a SQLite file path.
func Connect(dsn string, logLevel logger.LogLevel) error {
	dialector, err := dialectorFor(dsn)
	if err != nil {
		return err
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialector.Name() == "sqlite" {
		// SQLite has a single writer; serialize through one connection
		sqlDB, err := DB.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Printf("Database connection established (%s)", dialector.Name())
	return nil
}

func dialectorFor(dsn string) (gorm.Dialector, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.Open(dsn), nil
	}

	path := strings.TrimPrefix(dsn, "sqlite://")
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		path += "?_foreign_keys=on&_busy_timeout=5000"
	}
	return sqlite.Open(path), nil
}

// ParseLogLevel maps a textual level to a gorm logger level, defaulting to warn
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// AutoMigrate runs database migrations
func AutoMigrate() error {
	log.Println("Running database migrations...")
	if err := Migrate(DB); err != nil {
		return err
	}
	log.Println("Database migrations completed successfully")
	return nil
}

// Migrate creates or updates the alert schema on db.
// Accepts a db parameter so tests can migrate their own in-memory databases.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Alert{},
		&IPAddress{},
		&AlertIPAddress{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Close closes the database connection
func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that db still answers, bounded by ctx
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("database not connected")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
