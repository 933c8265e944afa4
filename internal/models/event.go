package models

import (
	"time"

	"gorm.io/gorm"
)

// EventType categorizes association events. Only "meetings" events count
// toward the attendance rate.
type EventType string

const (
	EventMeetings   EventType = "meetings"
	EventConference EventType = "conference"
	EventWorkshop   EventType = "workshop"
	EventSeminar    EventType = "seminar"
	EventTraining   EventType = "training"
	EventSocial     EventType = "social"
)

// Valid reports whether the event type is one of the supported values.
func (t EventType) Valid() bool {
	switch t {
	case EventMeetings, EventConference, EventWorkshop, EventSeminar, EventTraining, EventSocial:
		return true
	}
	return false
}

// EventStatus is the lifecycle state of an event
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Event represents an association event members can attend
type Event struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	Title       string      `gorm:"type:varchar(255)" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	EventType   EventType   `gorm:"type:varchar(50);index" json:"eventType"`
	Status      EventStatus `gorm:"type:varchar(20);default:'upcoming'" json:"status"`
	StartDate   time.Time   `gorm:"index" json:"startDate"`
	EndDate     time.Time   `json:"endDate"`
	Location    string      `gorm:"type:varchar(255)" json:"location"`
	CreatedBy   uint        `json:"createdBy"`

	// Relationships
	Attendees []Attendee `gorm:"foreignKey:EventID" json:"attendees,omitempty"`
}

// AttendeeStatus is the attendance state of a user at an event
type AttendeeStatus string

const (
	AttendeeRegistered AttendeeStatus = "registered"
	AttendeePresent    AttendeeStatus = "present"
	AttendeeAbsent     AttendeeStatus = "absent"
	AttendeeCancelled  AttendeeStatus = "cancelled"
)

// Attendee links a user to an event. One row per (event, user).
type Attendee struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	EventID      uint           `gorm:"uniqueIndex:idx_attendees_event_user" json:"eventId"`
	UserID       uint           `gorm:"uniqueIndex:idx_attendees_event_user;index" json:"userId"`
	Status       AttendeeStatus `gorm:"type:varchar(20);default:'registered'" json:"status"`
	RegisteredAt time.Time      `json:"registeredAt"`

	// Relationships
	Event Event `gorm:"foreignKey:EventID" json:"-"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
