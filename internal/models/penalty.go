package models

import (
	"time"

	"gorm.io/gorm"
)

// Penalty is a surcharge appended to a due. The penalty list is append-only:
// there is no update or removal operation, corrections go through a new
// administrative entry.
type Penalty struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	DueID   uint      `gorm:"index" json:"dueId"`
	Amount  float64   `gorm:"type:decimal(15,2)" json:"amount"`
	Reason  string    `gorm:"type:text" json:"reason"`
	AddedBy uint      `json:"addedBy"`
	AddedAt time.Time `json:"addedAt"`
}
