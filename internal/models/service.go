package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultLang is the fallback language for catalog text.
const DefaultLang = "en"

// Service is a catalog entry. Name/Description/Notes are JSON maps
// keyed by language code, e.g. {"en": "Plumbing", "fr": "Plomberie"}.
type Service struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Category string `gorm:"type:varchar(50);index" json:"category"`

	Name        datatypes.JSONMap `json:"name"`
	Description datatypes.JSONMap `json:"description"`
	Notes       datatypes.JSONMap `json:"notes"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Localized picks the text for lang, falling back to DefaultLang and
// then to any available translation.
func Localized(m datatypes.JSONMap, lang string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[lang].(string); ok && v != "" {
		return v
	}
	if v, ok := m[DefaultLang].(string); ok && v != "" {
		return v
	}
	for _, raw := range m {
		if v, ok := raw.(string); ok && v != "" {
			return v
		}
	}
	return ""
}
