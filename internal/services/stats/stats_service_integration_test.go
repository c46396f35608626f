package stats

import (
	"context"
	"testing"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
	"github.com/entrenar-app/backend_entrenadores/internal/services/hires"
	"github.com/entrenar-app/backend_entrenadores/internal/testutil"
)

func TestForTrainer_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	svc := NewService(gdb)
	hireSvc := hires.NewService(gdb)
	ctx := context.Background()

	trainer := testutil.SeedUser(t, gdb, models.RoleTrainer)
	client := testutil.SeedUser(t, gdb, models.RoleClient)
	offering := testutil.SeedService(t, gdb, trainer.ID)

	// four views, one anonymous
	for i := 0; i < 3; i++ {
		if err := svc.RecordView(ctx, offering.ID, &client.ID); err != nil {
			t.Fatalf("record view: %v", err)
		}
	}
	if err := svc.RecordView(ctx, offering.ID, nil); err != nil {
		t.Fatalf("record anonymous view: %v", err)
	}

	// one completed hire with an approved 5-star review
	hire, err := hireSvc.Create(ctx, client.ID, offering.ID)
	if err != nil {
		t.Fatalf("create hire: %v", err)
	}
	if err := hireSvc.UpdateState(ctx, hire.ID, models.HireStateAccepted, trainer.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := hireSvc.UpdateState(ctx, hire.ID, models.HireStateCompleted, trainer.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	review := models.Review{
		HireID:  hire.ID,
		Rating:  5,
		Comment: "excelente entrenador, lo recomiendo",
		Status:  models.ReviewStatusApproved,
	}
	if err := gdb.Create(&review).Error; err != nil {
		t.Fatalf("seed review: %v", err)
	}

	got, err := svc.ForTrainer(ctx, trainer.ID)
	if err != nil {
		t.Fatalf("for trainer: %v", err)
	}

	if got.TotalViews != 4 {
		t.Errorf("total views = %d, want 4", got.TotalViews)
	}
	if got.ConversionRate != 25.0 {
		t.Errorf("conversion rate = %v, want 25", got.ConversionRate)
	}
	if got.TotalRatings != 1 || got.AverageRating != 5.0 {
		t.Errorf("ratings = %d avg %v, want 1 avg 5", got.TotalRatings, got.AverageRating)
	}
	if got.RatingDistribution[4] != 1 {
		t.Errorf("5-star bucket = %d, want 1", got.RatingDistribution[4])
	}
	if len(got.PopularServices) != 1 || got.PopularServices[0].ServiceID != offering.ID {
		t.Errorf("popular services = %+v, want the seeded service", got.PopularServices)
	}
	if got.PopularServices[0].TotalHires != 1 || got.PopularServices[0].Views != 4 {
		t.Errorf("popular service counts = %+v, want 1 hire / 4 views", got.PopularServices[0])
	}
}

func TestForTrainer_Empty_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	svc := NewService(gdb)

	trainer := testutil.SeedUser(t, gdb, models.RoleTrainer)

	got, err := svc.ForTrainer(context.Background(), trainer.ID)
	if err != nil {
		t.Fatalf("for trainer: %v", err)
	}
	if got.TotalViews != 0 || got.ConversionRate != 0 || got.AverageRating != 0 || got.TotalRatings != 0 {
		t.Errorf("expected zeroed stats, got %+v", got)
	}
}
