package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Review is one-to-one with a completed hire. The trainer response can be set
// at most once.
type Review struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HireID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"hire_id"`

	Rating  int          `gorm:"not null" json:"rating"` // 1-5
	Comment string       `gorm:"type:text" json:"comment"`
	Status  ReviewStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	Response          *string    `gorm:"type:text" json:"response,omitempty"`
	ResponseAt        *time.Time `json:"response_at,omitempty"`
	ResponseTrainerID *uuid.UUID `gorm:"type:uuid" json:"response_trainer_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Hire *Hire `gorm:"foreignKey:HireID" json:"hire,omitempty"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
