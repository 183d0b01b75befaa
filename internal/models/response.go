package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResponseStatus string

const (
	ResponseStatusPending  ResponseStatus = "PENDING"
	ResponseStatusAccepted ResponseStatus = "ACCEPTED"
	ResponseStatusRejected ResponseStatus = "REJECTED"
)

// Response is a provider's offer against one Request. A provider may
// respond at most once per request (composite unique index).
type Response struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_responses_request_provider" json:"request_id"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_responses_request_provider" json:"provider_id"`

	Message       string  `gorm:"type:text;not null" json:"message"`
	ProposedPrice float64 `gorm:"type:numeric(10,2);not null" json:"proposed_price"`

	Status ResponseStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Request  *Request `gorm:"foreignKey:RequestID" json:"request,omitempty"`
	Provider *User    `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

func (r *Response) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
