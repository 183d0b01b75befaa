package models

import (
	"time"

	"github.com/google/uuid"
)

// ProviderProfile carries the provider-only fields of a User with
// Role = PROVIDER. Kept in its own table instead of widening users.
type ProviderProfile struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	// An administrator must approve a provider before they may
	// submit responses.
	IsApproved bool `gorm:"default:false" json:"is_approved"`

	Skills []Service `gorm:"many2many:provider_skills" json:"skills,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
