package tenant

import (
	"fmt"

	"lead-service/internal/apperr"
	"lead-service/internal/model"
	"lead-service/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresOpener returns an OpenFunc that maps each tenant database name to
// an isolated Postgres schema in the shared cluster. The schema is created
// lazily on first acquire; the returned handle pins search_path to it so
// every unqualified table reference stays inside the tenant namespace.
func PostgresOpener(cfg *config.DatabaseConfig) OpenFunc {
	return func(dbName string) (*Conn, error) {
		if cfg == nil || cfg.Host == "" || cfg.Name == "" {
			return nil, fmt.Errorf("%w: database location is not set", apperr.ErrNotConfigured)
		}

		logLevel := logger.Error
		if cfg.LogLevel == "info" {
			logLevel = logger.Info
		}

		dsn := cfg.DSN(cfg.Name) + " search_path=" + dbName
		pgConfig := postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true, // Disables implicit prepared statement usage
		}
		db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
			Logger: logger.Default.LogMode(logLevel),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: opening tenant store %q: %v", apperr.ErrConnection, dbName, err)
		}

		// Lazy namespace allocation: first use of a brand-new tenant name
		// creates its schema.
		if err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + quoteIdent(dbName)).Error; err != nil {
			return nil, fmt.Errorf("%w: allocating tenant namespace %q: %v", apperr.ErrConnection, dbName, err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("%w: tenant store %q: %v", apperr.ErrConnection, dbName, err)
		}
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

		return &Conn{
			Name:  dbName,
			DB:    db,
			Ping:  sqlDB.Ping,
			Close: sqlDB.Close,
			Exec: func(stmt string) error {
				return db.Exec(stmt).Error
			},
			MigrateUsers: func() error {
				return db.AutoMigrate(&model.User{})
			},
		}, nil
	}
}
