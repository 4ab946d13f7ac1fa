package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is a bookable salon service, mirrored from the appointment
// backend's catalog so call scripts can quote names and prices.
type Service struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	ExternalID  string    `gorm:"uniqueIndex"`
	Name        string    `gorm:"not null"`
	Description string
	Price       float64 `gorm:"type:decimal(10,2);not null"`
	Duration    int     // in minutes
	Category    string  `gorm:"default:'General'"`
	IsActive    bool    `gorm:"default:true"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
