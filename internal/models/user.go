package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleClient  Role = "client"
	RoleTrainer Role = "trainer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleTrainer:
		return true
	}
	return false
}

// User is never hard-deleted; Deleted flags the row out of every query.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Role      Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	FirstName string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string    `gorm:"type:varchar(100)" json:"last_name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`

	PasswordHash string     `gorm:"not null" json:"-"`
	BirthDate    *time.Time `gorm:"type:date" json:"birth_date,omitempty"`

	Deleted     bool       `gorm:"default:false;index" json:"-"`
	DeletedDate *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
