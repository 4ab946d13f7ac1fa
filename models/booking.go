package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking statuses.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
	BookingNoShow    = "no_show"
)

// Booking origins.
const (
	BookingViaVoiceCall = "voice_call"
	BookingViaSMS       = "sms"
	BookingViaManual    = "manual"
)

// Booking is a confirmed appointment. Rows exist only after the
// external appointment backend accepted the reservation.
type Booking struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key"`
	CustomerID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	ConversationID *uuid.UUID `gorm:"type:uuid;index"`

	ExternalBookingID string    `gorm:"uniqueIndex"`
	StartTime         time.Time
	DurationMinutes   int
	ServiceName       string
	StylistID         string    `gorm:"index"`
	Price             float64   `gorm:"type:decimal(10,2)"`

	Status     string `gorm:"type:varchar(20);index"`
	CreatedVia string `gorm:"type:varchar(20)"`

	Customer     *Customer     `gorm:"foreignKey:CustomerID"`
	Conversation *Conversation `gorm:"foreignKey:ConversationID"`

	gorm.Model
}

func (b *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}

// EndTime is the exclusive end of the booked interval.
func (b *Booking) EndTime() time.Time {
	return b.StartTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
}
