package reviews

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/entrenar-app/backend_entrenadores/internal/domain"
	"github.com/entrenar-app/backend_entrenadores/internal/models"
	"github.com/entrenar-app/backend_entrenadores/internal/services/hires"
	"github.com/entrenar-app/backend_entrenadores/internal/testutil"
)

func completedHire(t *testing.T, gdb *gorm.DB, clientID, trainerID uuid.UUID) *models.Hire {
	t.Helper()
	ctx := context.Background()
	hireSvc := hires.NewService(gdb)

	offering := testutil.SeedService(t, gdb, trainerID)
	hire, err := hireSvc.Create(ctx, clientID, offering.ID)
	if err != nil {
		t.Fatalf("create hire: %v", err)
	}
	if err := hireSvc.UpdateState(ctx, hire.ID, models.HireStateAccepted, trainerID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := hireSvc.UpdateState(ctx, hire.ID, models.HireStateCompleted, trainerID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	return hire
}

func TestReview_Create_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	svc := NewService(gdb)
	ctx := context.Background()

	trainer := testutil.SeedUser(t, gdb, models.RoleTrainer)
	client := testutil.SeedUser(t, gdb, models.RoleClient)
	stranger := testutil.SeedUser(t, gdb, models.RoleClient)
	hire := completedHire(t, gdb, client.ID, trainer.ID)

	// validation runs before eligibility
	if _, err := svc.Create(ctx, hire.ID, client.ID, 0, "excelente entrenador"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("rating 0 = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Create(ctx, hire.ID, client.ID, 5, "corto"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("short comment = %v, want ErrInvalidInput", err)
	}

	if _, err := svc.Create(ctx, hire.ID, stranger.ID, 5, "excelente entrenador"); !errors.Is(err, domain.ErrNotEligible) {
		t.Fatalf("stranger review = %v, want ErrNotEligible", err)
	}

	review, err := svc.Create(ctx, hire.ID, client.ID, 5, "excelente entrenador, lo recomiendo")
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	if review.Status != models.ReviewStatusPending {
		t.Fatalf("status = %s, want pending", review.Status)
	}

	// one review per hire
	if _, err := svc.Create(ctx, hire.ID, client.ID, 4, "quiero opinar de nuevo"); !errors.Is(err, domain.ErrNotEligible) {
		t.Fatalf("second review = %v, want ErrNotEligible", err)
	}
}

func TestReview_BeforeCompletion_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	svc := NewService(gdb)
	ctx := context.Background()

	trainer := testutil.SeedUser(t, gdb, models.RoleTrainer)
	client := testutil.SeedUser(t, gdb, models.RoleClient)
	offering := testutil.SeedService(t, gdb, trainer.ID)

	hire, err := hires.NewService(gdb).Create(ctx, client.ID, offering.ID)
	if err != nil {
		t.Fatalf("create hire: %v", err)
	}

	if _, err := svc.Create(ctx, hire.ID, client.ID, 5, "todavia no terminamos pero va bien"); !errors.Is(err, domain.ErrNotEligible) {
		t.Fatalf("review on pending hire = %v, want ErrNotEligible", err)
	}
}

func TestReview_Response_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	svc := NewService(gdb)
	ctx := context.Background()

	trainer := testutil.SeedUser(t, gdb, models.RoleTrainer)
	otherTrainer := testutil.SeedUser(t, gdb, models.RoleTrainer)
	client := testutil.SeedUser(t, gdb, models.RoleClient)
	hire := completedHire(t, gdb, client.ID, trainer.ID)

	review, err := svc.Create(ctx, hire.ID, client.ID, 4, "muy buena experiencia en general")
	if err != nil {
		t.Fatalf("create review: %v", err)
	}

	if err := svc.AddResponse(ctx, review.ID, otherTrainer.ID, "gracias"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("other trainer response = %v, want ErrUnauthorized", err)
	}

	if err := svc.AddResponse(ctx, review.ID, trainer.ID, "gracias por entrenar conmigo"); err != nil {
		t.Fatalf("response: %v", err)
	}

	// exactly one response
	if err := svc.AddResponse(ctx, review.ID, trainer.ID, "otra respuesta"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("second response = %v, want ErrUnauthorized", err)
	}

	list, err := svc.ListByTrainer(ctx, trainer.ID)
	if err != nil {
		t.Fatalf("list by trainer: %v", err)
	}
	if len(list) != 1 || list[0].Response == nil {
		t.Fatalf("listed review missing response: %+v", list)
	}
}

func TestReview_Delete_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	svc := NewService(gdb)
	ctx := context.Background()

	trainer := testutil.SeedUser(t, gdb, models.RoleTrainer)
	client := testutil.SeedUser(t, gdb, models.RoleClient)
	stranger := testutil.SeedUser(t, gdb, models.RoleClient)
	hire := completedHire(t, gdb, client.ID, trainer.ID)

	review, err := svc.Create(ctx, hire.ID, client.ID, 3, "estuvo bien aunque llego tarde")
	if err != nil {
		t.Fatalf("create review: %v", err)
	}

	if err := svc.Delete(ctx, review.ID, stranger.ID, false); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("stranger delete = %v, want ErrUnauthorized", err)
	}
	if err := svc.Delete(ctx, review.ID, client.ID, false); err != nil {
		t.Fatalf("client delete: %v", err)
	}
	if err := svc.Delete(ctx, review.ID, client.ID, false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete again = %v, want ErrNotFound", err)
	}
}
