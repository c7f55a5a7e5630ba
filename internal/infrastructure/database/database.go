package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/config"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/infrastructure/seed"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Open creates a database connection for the configured driver
func Open(cfg *config.DatabaseConfig, debug bool, log *zap.Logger) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "postgres", "":
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN(),
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info("connected to database", zap.String("driver", cfg.Driver), zap.String("host", cfg.Host))
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")

	err := db.AutoMigrate(
		&entity.Product{},
		&entity.Customer{},
		&entity.Receipt{},
		&entity.ReceiptLine{},
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("database migrations completed")
	return nil
}

// SeedDemoData inserts the demo catalog for a business. Existing rows are
// left untouched so stock sold since the last start is kept.
func SeedDemoData(db *gorm.DB, tenantID uuid.UUID, log *zap.Logger) error {
	data := seed.Catalog(tenantID)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&data.Products).Error; err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&data.Customers).Error; err != nil {
		return fmt.Errorf("failed to seed customers: %w", err)
	}

	log.Info("demo data seeded",
		zap.String("business_id", tenantID.String()),
		zap.Int("products", len(data.Products)),
		zap.Int("customers", len(data.Customers)),
	)
	return nil
}
