// Package hires implements the hire lifecycle: the locked creation protocol,
// the state machine and payment-state updates. All writes go through one
// *gorm.DB; every mutation is transactional and rolls back fully on error.
package hires

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/entrenar-app/backend_entrenadores/internal/authz"
	"github.com/entrenar-app/backend_entrenadores/internal/domain"
	"github.com/entrenar-app/backend_entrenadores/internal/models"
)

// transitions is the full directed graph of legal hire state changes.
// cancelled and completed are terminal.
var transitions = map[models.HireState][]models.HireState{
	models.HireStatePending:   {models.HireStateAccepted, models.HireStateCancelled},
	models.HireStateAccepted:  {models.HireStateCompleted, models.HireStateCancelled},
	models.HireStateCancelled: {},
	models.HireStateCompleted: {},
}

// CanTransition reports whether from -> to is a legal hire state change.
func CanTransition(from, to models.HireState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Create reserves the service and inserts the pending hire in one
// transaction. The service row is locked FOR UPDATE before the availability
// check so two concurrent creators serialize on it; the partial unique index
// on live hires backstops the invariant regardless.
func (s *Service) Create(ctx context.Context, clientID uuid.UUID, serviceID uint) (*models.Hire, error) {
	var client models.User
	if err := s.DB.WithContext(ctx).
		First(&client, "id = ? AND deleted = false", clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("hires: client %s: %w", clientID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("hires: load client: %w", err)
	}
	if client.Role != models.RoleClient {
		return nil, fmt.Errorf("hires: only clients can hire services: %w", domain.ErrUnauthorized)
	}

	var hireID uuid.UUID
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var svc models.Service
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&svc, "id = ?", serviceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("hires: service %d: %w", serviceID, domain.ErrNotFound)
			}
			return fmt.Errorf("hires: lock service: %w", err)
		}

		if !svc.Active {
			return domain.ErrServiceUnavailable
		}

		var live int64
		if err := tx.Model(&models.Hire{}).
			Where("service_id = ? AND state IN ?", serviceID,
				[]models.HireState{models.HireStatePending, models.HireStateAccepted}).
			Count(&live).Error; err != nil {
			return fmt.Errorf("hires: count live hires: %w", err)
		}
		if live > 0 {
			return domain.ErrServiceUnavailable
		}

		if err := tx.Model(&models.Service{}).
			Where("id = ?", serviceID).
			Update("active", false).Error; err != nil {
			return fmt.Errorf("hires: reserve service: %w", err)
		}

		hire := models.Hire{
			ClientID:     clientID,
			ServiceID:    serviceID,
			State:        models.HireStatePending,
			PaymentState: models.PaymentStateUnpaid,
			RequestedAt:  time.Now(),
		}
		if err := tx.Create(&hire).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrServiceUnavailable
			}
			return fmt.Errorf("hires: insert hire: %w", err)
		}
		hireID = hire.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	var created models.Hire
	if err := s.DB.WithContext(ctx).
		Preload("Service").Preload("Service.Category").Preload("Service.Zone").
		First(&created, "id = ?", hireID).Error; err != nil {
		return nil, fmt.Errorf("hires: read back: %w", err)
	}
	return &created, nil
}

// isUniqueViolation matches the postgres duplicate-key error raised by the
// live-hire partial index when the row lock did not serialize two creators.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "duplicate key value")
}

// GetByID returns the hire with its service; only participants may read it.
func (s *Service) GetByID(ctx context.Context, hireID, requesterID uuid.UUID) (*models.Hire, error) {
	var hire models.Hire
	if err := s.DB.WithContext(ctx).
		Preload("Service").Preload("Service.Category").Preload("Service.Zone").
		Preload("Client").
		First(&hire, "id = ?", hireID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("hires: hire %s: %w", hireID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("hires: load hire: %w", err)
	}

	if !authz.CanViewHire(&hire, requesterID) {
		return nil, domain.ErrUnauthorized
	}
	return &hire, nil
}

// ListByUser returns hires the user participates in, as client or trainer,
// newest requests first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Hire, error) {
	var out []models.Hire
	err := s.DB.WithContext(ctx).
		Preload("Service").Preload("Service.Category").Preload("Service.Zone").
		Preload("Client").
		Joins("JOIN services ON services.id = hires.service_id").
		Where("hires.client_id = ? OR services.trainer_id = ?", userID, userID).
		Order("hires.requested_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("hires: list by user: %w", err)
	}
	return out, nil
}

// UpdateState applies one transition from the table above. Completion is an
// extra step restricted to the owning trainer; cancellation reactivates the
// service so it becomes hireable again.
func (s *Service) UpdateState(ctx context.Context, hireID uuid.UUID, newState models.HireState, actingUserID uuid.UUID) error {
	if !newState.Valid() {
		return fmt.Errorf("hires: unknown state %q: %w", newState, domain.ErrInvalidInput)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var hire models.Hire
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&hire, "id = ?", hireID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("hires: hire %s: %w", hireID, domain.ErrNotFound)
			}
			return fmt.Errorf("hires: load hire: %w", err)
		}
		var svc models.Service
		if err := tx.First(&svc, "id = ?", hire.ServiceID).Error; err != nil {
			return fmt.Errorf("hires: load service: %w", err)
		}
		hire.Service = &svc

		if !authz.CanActOnHire(&hire, actingUserID) {
			return domain.ErrUnauthorized
		}
		if !CanTransition(hire.State, newState) {
			return &domain.InvalidTransitionError{From: string(hire.State), To: string(newState)}
		}
		if newState == models.HireStateCompleted && svc.TrainerID != actingUserID {
			return domain.ErrUnauthorized
		}

		now := time.Now()
		updates := map[string]interface{}{"state": newState}
		switch newState {
		case models.HireStateAccepted:
			updates["accepted_at"] = now
		case models.HireStateCompleted:
			updates["completed_at"] = now
		}
		if err := tx.Model(&models.Hire{}).
			Where("id = ?", hireID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("hires: update state: %w", err)
		}

		// Cancelling undoes the reservation made at creation.
		if newState == models.HireStateCancelled {
			if err := tx.Model(&models.Service{}).
				Where("id = ?", hire.ServiceID).
				Update("active", true).Error; err != nil {
				return fmt.Errorf("hires: reactivate service: %w", err)
			}
		}
		return nil
	})
}

// Complete marks the hire completed on behalf of the owning trainer. Chat and
// file upload close as a consequence of the state change; the gate reads
// hire.State, there is no separate flag.
func (s *Service) Complete(ctx context.Context, hireID uuid.UUID, trainer *models.User) error {
	var hire models.Hire
	if err := s.DB.WithContext(ctx).Preload("Service").
		First(&hire, "id = ?", hireID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("hires: hire %s: %w", hireID, domain.ErrNotFound)
		}
		return fmt.Errorf("hires: load hire: %w", err)
	}
	if !authz.CanCompleteHire(hire.Service, trainer) {
		return domain.ErrUnauthorized
	}
	return s.UpdateState(ctx, hireID, models.HireStateCompleted, trainer.ID)
}

// PaymentMeta carries the fields the verified payment event provides.
type PaymentMeta struct {
	PaymentID string
	Method    string
	PaidAt    *time.Time
	Raw       []byte
}

// UpdatePaymentState records the outcome of a verified payment event. It
// never touches the lifecycle state, and re-applying the same event with the
// same metadata is harmless.
func (s *Service) UpdatePaymentState(ctx context.Context, hireID uuid.UUID, state models.PaymentState, meta PaymentMeta) error {
	if !state.Valid() {
		return fmt.Errorf("hires: unknown payment state %q: %w", state, domain.ErrInvalidInput)
	}

	updates := map[string]interface{}{"payment_state": state}
	if meta.PaymentID != "" {
		updates["payment_id"] = meta.PaymentID
	}
	if meta.Method != "" {
		updates["payment_method"] = meta.Method
	}
	if meta.PaidAt != nil {
		updates["paid_at"] = *meta.PaidAt
	}
	if len(meta.Raw) > 0 {
		updates["payment_payload"] = datatypes.JSON(meta.Raw)
	}

	res := s.DB.WithContext(ctx).Model(&models.Hire{}).
		Where("id = ?", hireID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("hires: update payment state: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("hires: hire %s: %w", hireID, domain.ErrNotFound)
	}
	return nil
}
