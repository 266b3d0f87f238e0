package pg

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model is embedded by entities keyed by a generated uuid.
type Model struct {
	ID        uuid.UUID `gorm:"primaryKey;type:uuid;column:id"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (m *Model) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
