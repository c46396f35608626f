// Package reviews enforces the one-review-per-completed-hire rule and the
// single trainer response.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/entrenar-app/backend_entrenadores/internal/authz"
	"github.com/entrenar-app/backend_entrenadores/internal/domain"
	"github.com/entrenar-app/backend_entrenadores/internal/models"
)

const minCommentLen = 10

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Create validates rating and comment defensively (the request layer already
// did), checks eligibility and inserts the review in the pending moderation
// state. The unique index on hire_id backstops the double-review race.
func (s *Service) Create(ctx context.Context, hireID, clientID uuid.UUID, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("reviews: rating must be 1-5: %w", domain.ErrInvalidInput)
	}
	comment = strings.TrimSpace(comment)
	if len(comment) < minCommentLen {
		return nil, fmt.Errorf("reviews: comment too short: %w", domain.ErrInvalidInput)
	}

	var hire models.Hire
	if err := s.DB.WithContext(ctx).Preload("Service").
		First(&hire, "id = ?", hireID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reviews: hire %s: %w", hireID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("reviews: load hire: %w", err)
	}

	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.Review{}).
		Where("hire_id = ?", hireID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("reviews: check existing: %w", err)
	}

	if !authz.CanReview(&hire, clientID, existing > 0) {
		return nil, domain.ErrNotEligible
	}

	review := models.Review{
		HireID:  hireID,
		Rating:  rating,
		Comment: comment,
		Status:  models.ReviewStatusPending,
	}
	if err := s.DB.WithContext(ctx).Create(&review).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			return nil, domain.ErrNotEligible
		}
		return nil, fmt.Errorf("reviews: insert: %w", err)
	}
	return &review, nil
}

// AddResponse sets the trainer response once. A review that already has a
// response, or a requester who does not own the underlying service, gets
// Unauthorized.
func (s *Service) AddResponse(ctx context.Context, reviewID, trainerID uuid.UUID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("reviews: empty response: %w", domain.ErrInvalidInput)
	}

	var review models.Review
	if err := s.DB.WithContext(ctx).Preload("Hire").Preload("Hire.Service").
		First(&review, "id = ?", reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("reviews: review %s: %w", reviewID, domain.ErrNotFound)
		}
		return fmt.Errorf("reviews: load review: %w", err)
	}
	if review.Hire == nil || review.Hire.Service == nil {
		return fmt.Errorf("reviews: review %s has no service linkage", reviewID)
	}

	if !authz.CanRespondToReview(&review, review.Hire.Service, trainerID) {
		return domain.ErrUnauthorized
	}

	now := time.Now()
	// Guard the update on response still being NULL so two concurrent
	// responses cannot both land.
	res := s.DB.WithContext(ctx).Model(&models.Review{}).
		Where("id = ? AND response IS NULL", reviewID).
		Updates(map[string]interface{}{
			"response":            text,
			"response_at":         now,
			"response_trainer_id": trainerID,
		})
	if res.Error != nil {
		return fmt.Errorf("reviews: set response: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUnauthorized
	}
	return nil
}

// Delete hard-deletes the review. Allowed for admins, the authoring client
// and the owning trainer.
func (s *Service) Delete(ctx context.Context, reviewID, requesterID uuid.UUID, isAdmin bool) error {
	var review models.Review
	if err := s.DB.WithContext(ctx).Preload("Hire").Preload("Hire.Service").
		First(&review, "id = ?", reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("reviews: review %s: %w", reviewID, domain.ErrNotFound)
		}
		return fmt.Errorf("reviews: load review: %w", err)
	}
	if review.Hire == nil || review.Hire.Service == nil {
		return fmt.Errorf("reviews: review %s has no service linkage", reviewID)
	}

	if !authz.CanDeleteReview(review.Hire.ClientID, review.Hire.Service.TrainerID, requesterID, isAdmin) {
		return domain.ErrUnauthorized
	}

	if err := s.DB.WithContext(ctx).Delete(&models.Review{}, "id = ?", reviewID).Error; err != nil {
		return fmt.Errorf("reviews: delete: %w", err)
	}
	return nil
}

// ListByTrainer returns every review written against the trainer's services,
// newest first.
func (s *Service) ListByTrainer(ctx context.Context, trainerID uuid.UUID) ([]models.Review, error) {
	var out []models.Review
	err := s.DB.WithContext(ctx).
		Preload("Hire").Preload("Hire.Client").Preload("Hire.Service").
		Joins("JOIN hires ON hires.id = reviews.hire_id").
		Joins("JOIN services ON services.id = hires.service_id").
		Where("services.trainer_id = ?", trainerID).
		Order("reviews.created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("reviews: list by trainer: %w", err)
	}
	return out, nil
}

// ListByClient returns the client's own reviews.
func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Review, error) {
	var out []models.Review
	err := s.DB.WithContext(ctx).
		Preload("Hire").Preload("Hire.Service").Preload("Hire.Service.Trainer").
		Joins("JOIN hires ON hires.id = reviews.hire_id").
		Where("hires.client_id = ?", clientID).
		Order("reviews.created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("reviews: list by client: %w", err)
	}
	return out, nil
}
