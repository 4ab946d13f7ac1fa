package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Preferred contact time-of-day bands.
const (
	ContactMorning   = "morning"
	ContactAfternoon = "afternoon"
	ContactEvening   = "evening"
)

type Customer struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key"`
	Name  string    `gorm:"not null"`
	Phone string    `gorm:"not null;uniqueIndex"`
	Email string

	// Visit history
	TotalVisits int     `gorm:"default:0"`
	TotalSpent  float64 `gorm:"type:decimal(10,2);default:0.0"`
	LastVisit   *time.Time

	// Preferences
	PreferredServices    StringList `gorm:"type:text"`
	PreferredContactTime string     `gorm:"type:varchar(20)"` // morning, afternoon, evening
	PreferredStylist     string

	// Communication consent, per channel
	OptOutCalls bool `gorm:"default:false"`
	OptOutSMS   bool `gorm:"default:false"`

	ExternalCustomerID string `gorm:"index"`

	Conversations []Conversation `gorm:"foreignKey:CustomerID"`
	Bookings      []Booking      `gorm:"foreignKey:CustomerID"`

	gorm.Model
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
