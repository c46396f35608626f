// Package stats aggregates trainer-facing numbers: service views, conversion,
// ratings and most-hired services. The independent aggregates fan out in an
// errgroup since none depends on another.
package stats

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
)

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

type PopularService struct {
	ServiceID   uint   `json:"service_id"`
	Description string `json:"description"`
	TotalHires  int64  `json:"total_hires"`
	Views       int64  `json:"views"`
}

type TrainerStats struct {
	TotalViews         int64            `json:"total_views"`
	ConversionRate     float64          `json:"conversion_rate"` // completed hires per 100 views
	AverageRating      float64          `json:"average_rating"`
	TotalRatings       int64            `json:"total_ratings"`
	RatingDistribution [5]int64         `json:"rating_distribution"` // index 0 = 1 star
	PopularServices    []PopularService `json:"popular_services"`
}

// ForTrainer computes the stats block across all of the trainer's services,
// active or not. Ratings only count approved reviews.
func (s *Service) ForTrainer(ctx context.Context, trainerID uuid.UUID) (*TrainerStats, error) {
	out := &TrainerStats{}

	var completed int64
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.DB.WithContext(gctx).Model(&models.ServiceView{}).
			Joins("JOIN services ON services.id = service_views.service_id").
			Where("services.trainer_id = ?", trainerID).
			Count(&out.TotalViews).Error
		if err != nil {
			return fmt.Errorf("stats: views: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := s.DB.WithContext(gctx).Model(&models.Hire{}).
			Joins("JOIN services ON services.id = hires.service_id").
			Where("services.trainer_id = ? AND hires.state = ?", trainerID, models.HireStateCompleted).
			Count(&completed).Error
		if err != nil {
			return fmt.Errorf("stats: completed hires: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		rows, err := s.DB.WithContext(gctx).Model(&models.Review{}).
			Select("reviews.rating, COUNT(*) AS n").
			Joins("JOIN hires ON hires.id = reviews.hire_id").
			Joins("JOIN services ON services.id = hires.service_id").
			Where("services.trainer_id = ? AND reviews.status = ?", trainerID, models.ReviewStatusApproved).
			Group("reviews.rating").
			Rows()
		if err != nil {
			return fmt.Errorf("stats: ratings: %w", err)
		}
		defer rows.Close()

		var sum, count int64
		for rows.Next() {
			var rating int
			var n int64
			if err := rows.Scan(&rating, &n); err != nil {
				return fmt.Errorf("stats: scan rating: %w", err)
			}
			if rating >= 1 && rating <= 5 {
				out.RatingDistribution[rating-1] = n
				sum += int64(rating) * n
				count += n
			}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("stats: ratings rows: %w", err)
		}
		out.TotalRatings = count
		if count > 0 {
			out.AverageRating = float64(sum) / float64(count)
		}
		return nil
	})

	g.Go(func() error {
		err := s.DB.WithContext(gctx).Model(&models.Service{}).
			Select(`services.id AS service_id,
				services.description,
				COUNT(DISTINCT hires.id) AS total_hires,
				COUNT(DISTINCT service_views.id) AS views`).
			Joins("LEFT JOIN hires ON hires.service_id = services.id AND hires.state = ?", models.HireStateCompleted).
			Joins("LEFT JOIN service_views ON service_views.service_id = services.id").
			Where("services.trainer_id = ?", trainerID).
			Group("services.id, services.description").
			Order("total_hires DESC, views DESC").
			Limit(3).
			Scan(&out.PopularServices).Error
		if err != nil {
			return fmt.Errorf("stats: popular services: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if out.TotalViews > 0 {
		out.ConversionRate = float64(completed) * 100.0 / float64(out.TotalViews)
	}
	return out, nil
}

// RecordView logs one service-detail view; best effort, callers ignore errors.
func (s *Service) RecordView(ctx context.Context, serviceID uint, viewerID *uuid.UUID) error {
	return s.DB.WithContext(ctx).Create(&models.ServiceView{
		ServiceID: serviceID,
		ViewerID:  viewerID,
	}).Error
}
