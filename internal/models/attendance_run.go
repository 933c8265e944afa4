package models

import (
	"time"

	"gorm.io/gorm"
)

// AttendancePenaltyRun marks a year as processed by the attendance penalty
// evaluator. The unique index on Year is the at-most-once guard: re-running
// the evaluator for an already processed year is refused instead of
// double-applying penalties.
type AttendancePenaltyRun struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	Year             int       `gorm:"uniqueIndex:idx_penalty_runs_year,where:deleted_at IS NULL" json:"year"`
	RanBy            uint      `json:"ranBy"`
	RanAt            time.Time `json:"ranAt"`
	TotalMeetings    int       `json:"totalMeetings"`
	MembersEvaluated int       `json:"membersEvaluated"`
	MembersPenalized int       `json:"membersPenalized"`

	// Relationships
	Reports []AttendancePenaltyReport `gorm:"foreignKey:RunID" json:"reports,omitempty"`
}

// AttendancePenaltyReport is one member's line in a penalty run.
type AttendancePenaltyReport struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	RunID          uint    `gorm:"index" json:"runId"`
	UserID         uint    `gorm:"index" json:"userId"`
	Name           string  `gorm:"type:varchar(255)" json:"name"`
	PresentCount   int     `json:"presentCount"`
	AttendanceRate float64 `json:"attendanceRate"`
	Penalty        float64 `gorm:"type:decimal(15,2)" json:"penalty"`
	Warned         bool    `json:"warned"`
}
