package models

import (
	"time"

	"gorm.io/gorm"
)

// RegistrationStatus represents the registration state of a pharmacy
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationApproved  RegistrationStatus = "approved"
	RegistrationSuspended RegistrationStatus = "suspended"
)

// Pharmacy represents a registered pharmacy owned by an association member
type Pharmacy struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	Name               string             `gorm:"type:varchar(255)" json:"name"`
	RegistrationNumber string             `gorm:"type:varchar(100);uniqueIndex" json:"registrationNumber"`
	OwnerUserID        uint               `gorm:"index" json:"ownerUserId"`
	Address            string             `gorm:"type:text" json:"address"`
	State              string             `gorm:"type:varchar(100);index" json:"state"`
	LGA                string             `gorm:"type:varchar(100)" json:"lga"`
	RegistrationStatus RegistrationStatus `gorm:"type:varchar(20);default:'pending';index" json:"registrationStatus"`
	RegisteredAt       time.Time          `json:"registeredAt"`

	// Relationships
	Owner User  `gorm:"foreignKey:OwnerUserID" json:"owner,omitempty"`
	Dues  []Due `gorm:"foreignKey:PharmacyID" json:"dues,omitempty"`
}
