package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/coldreach/outreach-backend/internal/config"
	"github.com/coldreach/outreach-backend/internal/models"
)

// InitDB initializes the database connection and performs migrations
func InitDB(cfg *config.Settings) (*gorm.DB, error) {
	dsn, err := cfg.DatabaseDSN()
	if err != nil {
		return nil, err
	}

	// Configure GORM logger
	gormLogger := logger.New(
		logrus.New(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	// Open database connection
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// gen_random_uuid() needs pgcrypto on Postgres < 13
	err = db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error
	if err != nil {
		return nil, fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	// Auto migrate the schema
	err = db.AutoMigrate(
		&models.User{},
		&models.Campaign{},
		&models.Lead{},
		&models.EmailTemplate{},
		&models.EmailJob{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Duplicate sends are prevented at the storage layer: one lead can only ever
	// have one sent job per step.
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_email_jobs_lead_step_sent
		ON email_jobs(lead_id, step_number)
		WHERE status = 'sent'
	`).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create sent-uniqueness index: %w", err)
	}

	// One lead per email address per campaign
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_campaign_email
		ON leads(campaign_id, email)
	`).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create lead uniqueness index: %w", err)
	}

	logrus.Info("Database connection established and migrations completed")
	return db, nil
}
