package models

import (
	"time"

	"github.com/teambition/rrule-go"
	"gorm.io/gorm"
)

// RecurringPeriod represents how often a recurring due type repeats
type RecurringPeriod string

const (
	PeriodMonthly    RecurringPeriod = "monthly"
	PeriodQuarterly  RecurringPeriod = "quarterly"
	PeriodSemiAnnual RecurringPeriod = "semi_annual"
	PeriodAnnual     RecurringPeriod = "annual"
)

// RRule returns the RFC 5545 recurrence rule for the period.
func (p RecurringPeriod) RRule() string {
	switch p {
	case PeriodMonthly:
		return "FREQ=MONTHLY"
	case PeriodQuarterly:
		return "FREQ=MONTHLY;INTERVAL=3"
	case PeriodSemiAnnual:
		return "FREQ=MONTHLY;INTERVAL=6"
	case PeriodAnnual:
		return "FREQ=YEARLY"
	}
	return ""
}

// Valid reports whether the period is one of the supported values.
func (p RecurringPeriod) Valid() bool {
	return p.RRule() != ""
}

// DueType is a named template from which concrete dues are instantiated.
// Referenced types are never hard-deleted, only deactivated, so historical
// dues keep resolving.
type DueType struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	Name            string           `gorm:"type:varchar(255)" json:"name"`
	Description     string           `gorm:"type:text" json:"description"`
	DefaultAmount   float64          `gorm:"type:decimal(15,2)" json:"defaultAmount"`
	IsRecurring     bool             `gorm:"default:false" json:"isRecurring"`
	RecurringPeriod *RecurringPeriod `gorm:"type:varchar(20)" json:"recurringPeriod,omitempty"`
	IsActive        bool             `gorm:"default:true" json:"isActive"`

	// Relationships
	Dues []Due `gorm:"foreignKey:DueTypeID" json:"dues,omitempty"`
}

// NextOccurrence calculates the next due date strictly after the given date.
// Returns the zero time for non-recurring types or unparseable rules.
func (t DueType) NextOccurrence(after time.Time) time.Time {
	if !t.IsRecurring || t.RecurringPeriod == nil {
		return time.Time{}
	}

	rule, err := rrule.StrToRRule(t.RecurringPeriod.RRule())
	if err != nil {
		return time.Time{}
	}
	rule.DTStart(after)

	next := rule.After(after, false)
	return next
}
