package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
}

type Zone struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
}

type Modality string

const (
	ModalityOnline   Modality = "online"
	ModalityInPerson Modality = "presencial"
)

// Service is hireable only while Active is true and it has no live hire.
// Active is flipped off when a hire reserves it and back on when that hire
// is cancelled.
type Service struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TrainerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"trainer_id"`
	CategoryID uint      `gorm:"not null;index" json:"category_id"`
	ZoneID     uint      `gorm:"not null;index" json:"zone_id"`

	Description string   `gorm:"type:text;not null" json:"description"`
	Price       int64    `gorm:"not null" json:"price"` // cents
	DurationMin int      `gorm:"not null" json:"duration_min"`
	Language    string   `gorm:"type:varchar(20)" json:"language"`
	Modality    Modality `gorm:"type:varchar(20)" json:"modality"`

	Active  bool      `gorm:"default:true;index" json:"active"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Trainer  *User     `gorm:"foreignKey:TrainerID" json:"trainer,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Zone     *Zone     `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
}

// ServiceView feeds the trainer conversion stats; one row per detail view.
type ServiceView struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ServiceID uint       `gorm:"not null;index" json:"service_id"`
	ViewerID  *uuid.UUID `gorm:"type:uuid" json:"viewer_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
