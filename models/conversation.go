package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact attempt kinds.
const (
	CallTypePromotional = "promotional"
	CallTypeReminder    = "reminder"
	CallTypeFollowUp    = "follow_up"
)

// Channel delivery statuses, as reported by the gateway.
const (
	CallStatusInitiated = "initiated"
	CallStatusRinging   = "ringing"
	CallStatusAnswered  = "answered"
	CallStatusVoicemail = "voicemail"
	CallStatusBusy      = "busy"
	CallStatusCompleted = "completed"
	CallStatusFailed    = "failed"
)

// Customer response classifications.
const (
	ResponseBooked         = "booked"
	ResponseInterested     = "interested"
	ResponseCallback       = "callback"
	ResponseNotInterested  = "not_interested"
	ResponseRemoveFromList = "remove_from_list"
	ResponseUnknown        = "unknown"
)

// Conversation is one contact attempt against a customer, optionally
// carrying the promotion that was pitched.
type Conversation struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	CustomerID  uuid.UUID  `gorm:"type:uuid;index;not null"`
	PromotionID *uuid.UUID `gorm:"type:uuid;index"`

	CallType     string `gorm:"type:varchar(20)"`
	CallStatus   string `gorm:"type:varchar(20)"`
	CallDuration int    // seconds

	CustomerResponse string `gorm:"type:varchar(30);index"`
	Notes            string `gorm:"type:text"`

	FollowUpRequired bool `gorm:"default:false;index"`
	FollowUpDate     *time.Time
	FollowUpClaimed  bool `gorm:"default:false"`

	CallSID      string `gorm:"index"`
	RecordingURL string

	Customer  *Customer  `gorm:"foreignKey:CustomerID"`
	Promotion *Promotion `gorm:"foreignKey:PromotionID"`

	gorm.Model
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
