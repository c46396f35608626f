// Package db owns the shared GORM handle: it opens the pooled connection,
// runs migrations and is the only place that closes the pool.
package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("db: pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return gdb, nil
}

// Migrate creates the schema plus the partial unique index that backstops the
// "at most one live hire per service" invariant. The check-then-insert in hire
// creation runs under a row lock, but the index makes a second live hire
// impossible even if the isolation level ever lets two creators through.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Zone{},
		&models.Service{},
		&models.ServiceView{},
		&models.Hire{},
		&models.Message{},
		&models.SharedFile{},
		&models.Review{},
		&models.PasswordResetToken{},
	); err != nil {
		return fmt.Errorf("db: automigrate: %w", err)
	}

	if err := gdb.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_hires_one_live_per_service
		 ON hires (service_id)
		 WHERE state IN ('pending', 'accepted')`,
	).Error; err != nil {
		return fmt.Errorf("db: live-hire index: %w", err)
	}

	return nil
}

// Close tears down the pool on shutdown.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
