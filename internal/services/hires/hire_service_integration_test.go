package hires

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/entrenar-app/backend_entrenadores/internal/domain"
	"github.com/entrenar-app/backend_entrenadores/internal/models"
	"github.com/entrenar-app/backend_entrenadores/internal/testutil"
)

func TestHireLifecycle_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	svc := NewService(gdb)
	ctx := context.Background()

	trainer := testutil.SeedUser(t, gdb, models.RoleTrainer)
	client := testutil.SeedUser(t, gdb, models.RoleClient)
	offering := testutil.SeedService(t, gdb, trainer.ID)

	hire, err := svc.Create(ctx, client.ID, offering.ID)
	if err != nil {
		t.Fatalf("create hire: %v", err)
	}
	if hire.State != models.HireStatePending {
		t.Fatalf("new hire state = %s, want pending", hire.State)
	}

	// creation reserves the service
	var reloaded models.Service
	if err := gdb.First(&reloaded, "id = ?", offering.ID).Error; err != nil {
		t.Fatalf("reload service: %v", err)
	}
	if reloaded.Active {
		t.Fatal("service still active after being hired")
	}

	// a second hire on the same service is rejected
	other := testutil.SeedUser(t, gdb, models.RoleClient)
	if _, err := svc.Create(ctx, other.ID, offering.ID); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("second create = %v, want ErrServiceUnavailable", err)
	}

	if err := svc.UpdateState(ctx, hire.ID, models.HireStateAccepted, trainer.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// only the trainer completes
	if err := svc.UpdateState(ctx, hire.ID, models.HireStateCompleted, client.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("client complete = %v, want ErrUnauthorized", err)
	}
	if err := svc.UpdateState(ctx, hire.ID, models.HireStateCompleted, trainer.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	final, err := svc.GetByID(ctx, hire.ID, trainer.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.State != models.HireStateCompleted {
		t.Fatalf("state = %s, want completed", final.State)
	}
	if final.AcceptedAt == nil || final.CompletedAt == nil {
		t.Fatal("accepted_at / completed_at not stamped")
	}

	// terminal state rejects further transitions
	err = svc.UpdateState(ctx, hire.ID, models.HireStateCancelled, trainer.ID)
	if !domain.IsInvalidTransition(err) {
		t.Fatalf("cancel after complete = %v, want InvalidTransitionError", err)
	}
}

func TestHireCreate_Concurrent_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	svc := NewService(gdb)
	ctx := context.Background()

	trainer := testutil.SeedUser(t, gdb, models.RoleTrainer)
	offering := testutil.SeedService(t, gdb, trainer.ID)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client := testutil.SeedUser(t, gdb, models.RoleClient)
			_, errs[i] = svc.Create(ctx, client.ID, offering.ID)
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domain.ErrServiceUnavailable):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("%d concurrent creates succeeded, want exactly 1", won)
	}

	var live int64
	gdb.Model(&models.Hire{}).
		Where("service_id = ? AND state IN ?", offering.ID,
			[]models.HireState{models.HireStatePending, models.HireStateAccepted}).
		Count(&live)
	if live != 1 {
		t.Fatalf("live hires = %d, want 1", live)
	}
}

func TestHireCancel_ReactivatesService_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	svc := NewService(gdb)
	ctx := context.Background()

	trainer := testutil.SeedUser(t, gdb, models.RoleTrainer)
	client := testutil.SeedUser(t, gdb, models.RoleClient)
	offering := testutil.SeedService(t, gdb, trainer.ID)

	hire, err := svc.Create(ctx, client.ID, offering.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.UpdateState(ctx, hire.ID, models.HireStateCancelled, client.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	var reloaded models.Service
	if err := gdb.First(&reloaded, "id = ?", offering.ID).Error; err != nil {
		t.Fatalf("reload service: %v", err)
	}
	if !reloaded.Active {
		t.Fatal("service not reactivated after cancel")
	}

	// the service is hireable again
	again := testutil.SeedUser(t, gdb, models.RoleClient)
	if _, err := svc.Create(ctx, again.ID, offering.ID); err != nil {
		t.Fatalf("re-hire after cancel: %v", err)
	}
}

func TestHire_NonParticipant_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	svc := NewService(gdb)
	ctx := context.Background()

	trainer := testutil.SeedUser(t, gdb, models.RoleTrainer)
	client := testutil.SeedUser(t, gdb, models.RoleClient)
	stranger := testutil.SeedUser(t, gdb, models.RoleClient)
	offering := testutil.SeedService(t, gdb, trainer.ID)

	hire, err := svc.Create(ctx, client.ID, offering.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetByID(ctx, hire.ID, stranger.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("stranger get = %v, want ErrUnauthorized", err)
	}
	if err := svc.UpdateState(ctx, hire.ID, models.HireStateAccepted, stranger.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("stranger accept = %v, want ErrUnauthorized", err)
	}

	// trainers cannot hire
	if _, err := svc.Create(ctx, trainer.ID, offering.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("trainer create = %v, want ErrUnauthorized", err)
	}
}

func TestUpdatePaymentState_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	svc := NewService(gdb)
	ctx := context.Background()

	trainer := testutil.SeedUser(t, gdb, models.RoleTrainer)
	client := testutil.SeedUser(t, gdb, models.RoleClient)
	offering := testutil.SeedService(t, gdb, trainer.ID)

	hire, err := svc.Create(ctx, client.ID, offering.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	meta := PaymentMeta{PaymentID: "12345", Method: "credit_card", Raw: []byte(`{"status":"approved"}`)}
	if err := svc.UpdatePaymentState(ctx, hire.ID, models.PaymentStateSuccessful, meta); err != nil {
		t.Fatalf("update payment state: %v", err)
	}

	got, err := svc.GetByID(ctx, hire.ID, client.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PaymentState != models.PaymentStateSuccessful {
		t.Fatalf("payment state = %s, want successful", got.PaymentState)
	}
	if got.PaymentID == nil || *got.PaymentID != "12345" {
		t.Fatal("payment id not recorded")
	}
	// the lifecycle state stays untouched
	if got.State != models.HireStatePending {
		t.Fatalf("lifecycle state = %s, want pending", got.State)
	}

	// replaying the same event is harmless
	if err := svc.UpdatePaymentState(ctx, hire.ID, models.PaymentStateSuccessful, meta); err != nil {
		t.Fatalf("replay: %v", err)
	}
}
