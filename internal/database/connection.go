// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/imi-campaigns/internal/config"
	"github.com/javajoker/imi-campaigns/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.New(logrus.StandardLogger(), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
		// Duplicate keys surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithField("host", cfg.Host).Info("Database connection established")
	return db, nil
}

func logLevel(level string) logger.LogLevel {
	switch level {
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

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
		return
	}
	logrus.Info("Database connection closed")
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations")

	// gen_random_uuid() for primary key defaults
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Campaign{},
		&models.Collaboration{},
		&models.Deliverable{},
		&models.Content{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusEvent{},
		&models.Notification{},
		&models.OutboxEvent{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

// requiredIndexes back invariants the repositories rely on; a failure is
// fatal. The rest only speed up reads.
var requiredIndexes = []string{
	// One open collaboration per campaign and influencer
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_collaborations_open_pair ON collaborations(campaign_id, influencer_id) WHERE status <> 'cancelled' AND deleted_at IS NULL`,
}

var readIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_campaigns_brand_status ON campaigns(brand_id, status)",
	"CREATE INDEX IF NOT EXISTS idx_collaborations_influencer_status ON collaborations(influencer_id, status)",
	"CREATE INDEX IF NOT EXISTS idx_contents_campaign_status ON contents(campaign_id, status)",
	"CREATE INDEX IF NOT EXISTS idx_products_campaign_status ON products(campaign_id, status)",
	"CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id, order_id)",
	"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox_events(created_at) WHERE published_at IS NULL AND dead_lettered_at IS NULL",
	"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
}

func createIndexes(db *gorm.DB) error {
	for _, index := range requiredIndexes {
		if err := db.Exec(index).Error; err != nil {
			return err
		}
	}

	for _, index := range readIndexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}
	return nil
}
