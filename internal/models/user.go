package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole represents the role of a user within the association
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

// User represents an association member or administrator
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	Name  string   `gorm:"type:varchar(255)" json:"name"`
	Email string   `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Phone string   `gorm:"type:varchar(50)" json:"phone"`
	Role  UserRole `gorm:"type:varchar(20);default:'member'" json:"role"`

	// AnnualDues is the member's yearly subscription used as the base for
	// attendance penalties. PendingDues accumulates penalties not yet billed;
	// it is only ever changed through atomic increments.
	AnnualDues  float64 `gorm:"type:decimal(15,2)" json:"annualDues"`
	PendingDues float64 `gorm:"type:decimal(15,2)" json:"pendingDues"`

	// LastWarnedYear is set when the attendance evaluator flags the member.
	LastWarnedYear *int `json:"lastWarnedYear,omitempty"`

	// Relationships
	Pharmacies []Pharmacy `gorm:"foreignKey:OwnerUserID" json:"pharmacies,omitempty"`
}

// IsAdmin reports whether the user holds the administrator role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
