package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PasswordResetToken stores only the SHA-256 of the emailed token. Tokens are
// single-use and expire one hour after issue.
type PasswordResetToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	TokenHash string    `gorm:"type:char(64);uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"-"`
	UsedAt    *time.Time `json:"-"`

	CreatedAt time.Time `json:"-"`
}

func (t *PasswordResetToken) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
