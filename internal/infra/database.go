package infra

import (
	"fmt"

	"github.com/jljulioa/POS-App-sub001/internal/config"
	"github.com/jljulioa/POS-App-sub001/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection for the configured driver, sizes the
// pool and installs the otelgorm plugin when DB tracing is enabled.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Foreign keys are declared on the models for preloading only. Every
		// write goes through the services, which check existence under lock.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseDriver == "sqlite" {
		// SQLite has a single writer; one connection keeps transactions
		// serialized instead of failing with SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}

	if cfg.DBTracing {
		if err := db.Use(otelgorm.NewPlugin()); err != nil {
			log.Warn().Err(err).Msg("db connected but otelgorm plugin could not be installed")
		}
	}

	return db, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres", "":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}
}

// RunMigrations creates or updates every table the ledger needs. It is also
// what the tests call against an in-memory SQLite database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return nil
}
