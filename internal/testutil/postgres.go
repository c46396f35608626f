// Package testutil boots a throwaway Postgres container for integration
// tests and seeds the rows most of them need.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/entrenar-app/backend_entrenadores/internal/db"
	"github.com/entrenar-app/backend_entrenadores/internal/models"
)

// StartPostgres runs a Postgres 16 container, migrates the schema and returns
// a connected handle. Tests skip when no container runtime is available.
func StartPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("entrenar_test"),
		postgres.WithUsername("entrenar"),
		postgres.WithPassword("entrenar"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = ctr.Terminate(context.Background())
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	gdb, err := gorm.Open(gormpg.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(gdb)
	})

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return gdb
}

func SeedUser(t *testing.T, gdb *gorm.DB, role models.Role) *models.User {
	t.Helper()

	u := models.User{
		Role:         role,
		FirstName:    "Test",
		LastName:     string(role),
		Email:        fmt.Sprintf("%s-%s@example.com", role, uuid.NewString()),
		PasswordHash: "x",
	}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &u
}

func SeedService(t *testing.T, gdb *gorm.DB, trainerID uuid.UUID) *models.Service {
	t.Helper()

	cat := models.Category{Name: "cat-" + uuid.NewString()}
	if err := gdb.Create(&cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	zone := models.Zone{Name: "zone-" + uuid.NewString()}
	if err := gdb.Create(&zone).Error; err != nil {
		t.Fatalf("seed zone: %v", err)
	}

	now := time.Now()
	svc := models.Service{
		TrainerID:   trainerID,
		CategoryID:  cat.ID,
		ZoneID:      zone.ID,
		Description: "one hour personal training session",
		Price:       150000,
		DurationMin: 60,
		Language:    "es",
		Modality:    models.ModalityOnline,
		Active:      true,
		StartAt:     now,
		EndAt:       now.Add(30 * 24 * time.Hour),
	}
	if err := gdb.Create(&svc).Error; err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return &svc
}
