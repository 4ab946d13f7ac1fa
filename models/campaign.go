package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Campaign statuses.
const (
	CampaignScheduled = "scheduled"
	CampaignRunning   = "running"
	CampaignCompleted = "completed"
	CampaignCancelled = "cancelled"
)

// Campaign records one scheduled or manual dispatch run.
type Campaign struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Name        string    `gorm:"not null"`
	PromotionID uuid.UUID `gorm:"type:uuid;index;not null"`

	TargetCustomerCount int `gorm:"default:0"`
	CallsCompleted      int `gorm:"default:0"`
	CallsSuccessful     int `gorm:"default:0"`
	BookingsGenerated   int `gorm:"default:0"`

	ScheduledStart *time.Time
	ActualStart    *time.Time
	ActualEnd      *time.Time

	Status string `gorm:"type:varchar(20);index"`

	Promotion *Promotion `gorm:"foreignKey:PromotionID"`

	gorm.Model
}

func (c *Campaign) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
