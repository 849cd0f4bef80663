package database

import (
	"fmt"

	"lead-service/internal/apperr"
	"lead-service/internal/model"
	"lead-service/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the registry ("master") database and migrates the admin
// table. The returned handle is injected where needed rather than stashed in
// a package global; tenant stores are opened separately by the tenant
// runtime.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.Host == "" || cfg.Database.Name == "" {
		return nil, fmt.Errorf("%w: database location is not set", apperr.ErrNotConfigured)
	}

	// Set up GORM logger configuration
	logLevel := logger.Error
	if cfg.Server.Env == "development" {
		logLevel = logger.Info
	}
	switch cfg.Database.LogLevel {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	}

	pgConfig := postgres.Config{
		DSN:                  cfg.Database.DSN(cfg.Database.Name),
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}
	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to registry database: %v", apperr.ErrConnection, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: registry database: %v", apperr.ErrConnection, err)
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.AutoMigrate(&model.Admin{}); err != nil {
		return nil, fmt.Errorf("migrating registry schema: %w", err)
	}

	return db, nil
}
