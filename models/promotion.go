package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Promotion struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"type:text"`

	// Discount: percentage or flat amount, either may be unset
	DiscountPercentage *float64
	DiscountAmount     *float64

	// Targeting criteria
	TargetServices    StringList `gorm:"type:text"`
	TargetSegments    StringList `gorm:"type:text"`
	MinDaysSinceVisit *int
	MaxDaysSinceVisit *int

	// Campaign window and usage cap
	StartDate   time.Time
	EndDate     time.Time
	MaxUses     *int
	CurrentUses int  `gorm:"default:0"`
	IsActive    bool `gorm:"default:true"`

	gorm.Model
}

func (p *Promotion) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// InDateWindow reports whether the promotion is currently runnable.
func (p *Promotion) InDateWindow(now time.Time) bool {
	return p.IsActive && !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// UsesExhausted reports whether the usage cap, if any, is reached.
func (p *Promotion) UsesExhausted() bool {
	return p.MaxUses != nil && p.CurrentUses >= *p.MaxUses
}
