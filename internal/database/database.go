package database

import (
	"fmt"

	"github.com/healthlearn/site/internal/config"
	"github.com/healthlearn/site/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the MySQL document store and optionally migrates it.
func Connect(cfg *config.AppConfig) (*gorm.DB, error) {
	db, err := openDB(cfg.DSN, resolveLogLevel(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.Database.Migrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return db, nil
}

func resolveLogLevel(cfg *config.AppConfig) logger.LogLevel {
	if cfg.IsDev() {
		return logger.Info
	}
	return logger.Warn
}

func openDB(dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               dsn,
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// References between documents may dangle; the query layer treats a
		// missing target as unresolved.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

// Migrate runs GORM auto-migration for all content models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}
