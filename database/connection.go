package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

// Connect opens the PostgreSQL lead ledger and migrates its tables.
func Connect(dsn string, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("database connected")

	if err := db.AutoMigrate(&models.Lead{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database migrations completed")

	return db, nil
}
