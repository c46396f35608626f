package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type HireState string

const (
	HireStatePending   HireState = "pending"
	HireStateAccepted  HireState = "accepted"
	HireStateCancelled HireState = "cancelled"
	HireStateCompleted HireState = "completed"
)

func (s HireState) Valid() bool {
	switch s {
	case HireStatePending, HireStateAccepted, HireStateCancelled, HireStateCompleted:
		return true
	}
	return false
}

// Live reports whether the hire still blocks its service from being re-hired.
func (s HireState) Live() bool {
	return s == HireStatePending || s == HireStateAccepted
}

type PaymentState string

const (
	PaymentStateUnpaid     PaymentState = "unpaid"
	PaymentStatePending    PaymentState = "pending"
	PaymentStateSuccessful PaymentState = "successful"
	PaymentStateFailed     PaymentState = "failed"
)

func (s PaymentState) Valid() bool {
	switch s {
	case PaymentStateUnpaid, PaymentStatePending, PaymentStateSuccessful, PaymentStateFailed:
		return true
	}
	return false
}

// Hire binds one client to one service. Rows are never deleted; cancelled and
// completed are terminal states. Payment fields are written only by the
// payment webhook path and are independent of State.
type Hire struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	ServiceID uint      `gorm:"not null;index" json:"service_id"`

	State        HireState    `gorm:"type:varchar(20);not null;default:'pending';index" json:"state"`
	PaymentState PaymentState `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_state"`

	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	PaymentID      *string        `gorm:"type:varchar(255)" json:"payment_id,omitempty"`
	PaymentMethod  *string        `gorm:"type:varchar(50)" json:"payment_method,omitempty"`
	PaidAt         *time.Time     `json:"paid_at,omitempty"`
	PaymentPayload datatypes.JSON `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client  *User    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Service *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
}

func (h *Hire) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.RequestedAt.IsZero() {
		h.RequestedAt = time.Now()
	}
	return
}
