package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PaymentSession tracks an online payment attempt for a due at the gateway.
// At most one session per due is active at a time.
type PaymentSession struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	DueID       uint           `gorm:"index" json:"dueId"`
	PharmacyID  uint           `gorm:"index" json:"pharmacyId"`
	InitiatedBy uint           `json:"initiatedBy"`
	Gateway     PaymentGateway `gorm:"type:varchar(50);not null" json:"gateway"`
	OrderID     string         `gorm:"type:varchar(100);index" json:"orderId"`
	Amount      float64        `gorm:"type:decimal(15,2)" json:"amount"`
	IsActive    bool           `gorm:"default:true" json:"isActive"`

	RequestMetadata  json.RawMessage `gorm:"type:jsonb" json:"requestMetadata,omitempty"`
	ResponseMetadata json.RawMessage `gorm:"type:jsonb" json:"responseMetadata,omitempty"`
}

// PaymentCallback stores every raw gateway notification for audit purposes,
// whether or not it resulted in a ledger change.
type PaymentCallback struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	Gateway  PaymentGateway  `gorm:"type:varchar(50);not null" json:"gateway"`
	OrderID  string          `gorm:"type:varchar(100);index" json:"orderId"`
	Metadata json.RawMessage `gorm:"type:jsonb" json:"metadata"`
}
