package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusAccepted  RequestStatus = "ACCEPTED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusCompleted RequestStatus = "COMPLETED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
	RequestStatusExpired   RequestStatus = "EXPIRED"
)

// Terminal reports whether no further transition may leave the status.
// ACCEPTED is not terminal: it can still complete or expire.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestStatusRejected, RequestStatusCompleted, RequestStatusCancelled, RequestStatusExpired:
		return true
	}
	return false
}

// Request is a client's posted ask for a service.
type Request struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	ServiceID uint      `gorm:"not null;index" json:"service_id"`

	Description string  `gorm:"type:text;not null" json:"description"`
	Location    string  `gorm:"type:text;not null" json:"location"`
	Price       float64 `gorm:"type:numeric(10,2);not null" json:"price"`

	Status             RequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	AcceptedProviderID *uuid.UUID    `gorm:"type:uuid;index" json:"accepted_provider_id,omitempty"`

	// When the task should be performed; past dates expire the request
	// on next read.
	TaskDate *time.Time `json:"task_date,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Client           *User      `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Service          *Service   `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	AcceptedProvider *User      `gorm:"foreignKey:AcceptedProviderID" json:"accepted_provider,omitempty"`
	Responses        []Response `gorm:"foreignKey:RequestID" json:"responses,omitempty"`
}

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
