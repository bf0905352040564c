package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskbounty/portal/internal/config"
	"taskbounty/portal/internal/logging"
)

// OpenORM connects gorm to the configured SQL database.
func OpenORM(cfg config.DBConfig, appEnv string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported DB driver %q", cfg.Driver)
	}

	logLevel := logger.Warn
	if appEnv == "production" {
		logLevel = logger.Error
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logLevel)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	logging.Info("Connected to SQL database via GORM", "driver", cfg.Driver)
	return db, nil
}
