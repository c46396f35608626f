package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message belongs to exactly one hire and is immutable once created. Seq is a
// database-assigned monotonic counter that breaks CreatedAt ties so listing
// order matches insertion order.
type Message struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HireID   uuid.UUID `gorm:"type:uuid;not null;index" json:"hire_id"`
	SenderID uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`

	Text string `gorm:"type:text;not null" json:"text"`
	Seq  int64  `gorm:"autoIncrement;uniqueIndex" json:"-"`

	CreatedAt time.Time `json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

// SharedFile records metadata for a file stored on disk for a hire. The bytes
// themselves live under the storage root keyed by StoredName.
type SharedFile struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HireID     uuid.UUID `gorm:"type:uuid;not null;index" json:"hire_id"`
	UploaderID uuid.UUID `gorm:"type:uuid;not null" json:"uploader_id"`

	OriginalName string `gorm:"type:varchar(255);not null" json:"original_name"`
	StoredName   string `gorm:"type:varchar(255);not null" json:"-"`
	MimeType     string `gorm:"type:varchar(100)" json:"mime_type"`

	Deleted bool `gorm:"default:false" json:"-"`

	CreatedAt time.Time `json:"uploaded_at"`

	Uploader *User `gorm:"foreignKey:UploaderID" json:"uploader,omitempty"`
}

func (f *SharedFile) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return
}
