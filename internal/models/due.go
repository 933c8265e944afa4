package models

import (
	"time"

	"gorm.io/gorm"
)

// AssignmentType records how a due was created
type AssignmentType string

const (
	AssignmentIndividual AssignmentType = "individual"
	AssignmentBulk       AssignmentType = "bulk"
)

// PaymentStatus is the derived payment state of a due
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusOverdue       PaymentStatus = "overdue"
)

// Due is one obligation owed by one pharmacy, either instantiated from a
// DueType or created ad hoc. TotalAmount, Balance and PaymentStatus are
// derived from the base amount, the penalty list and the approved payments;
// they are recomputed on every mutation and never edited directly.
type Due struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	PharmacyID  uint   `gorm:"index" json:"pharmacyId"`
	DueTypeID   *uint  `gorm:"index" json:"dueTypeId,omitempty"` // nil for ad hoc dues
	Title       string `gorm:"type:varchar(255)" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	Amount  float64   `gorm:"type:decimal(15,2)" json:"amount"`
	DueDate time.Time `json:"dueDate"`
	Year    int       `gorm:"index" json:"year"` // derived from DueDate

	AssignmentType AssignmentType `gorm:"type:varchar(20);default:'individual'" json:"assignmentType"`
	AssignedBy     uint           `json:"assignedBy"`
	AssignedAt     time.Time      `json:"assignedAt"`

	IsRecurring bool       `gorm:"default:false" json:"isRecurring"`
	NextDueDate *time.Time `json:"nextDueDate,omitempty"`

	AmountPaid    float64       `gorm:"type:decimal(15,2)" json:"amountPaid"`
	TotalAmount   float64       `gorm:"type:decimal(15,2)" json:"totalAmount"`
	Balance       float64       `gorm:"type:decimal(15,2)" json:"balance"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);default:'pending';index" json:"paymentStatus"`

	// Relationships
	Pharmacy  Pharmacy            `gorm:"foreignKey:PharmacyID" json:"pharmacy,omitempty"`
	DueType   *DueType            `gorm:"foreignKey:DueTypeID" json:"dueType,omitempty"`
	Penalties []Penalty           `gorm:"foreignKey:DueID" json:"penalties,omitempty"`
	Payments  []PaymentSubmission `gorm:"foreignKey:DueID" json:"payments,omitempty"`
}

// BeforeCreate derives Year from DueDate so yearly uniqueness checks and
// reports never depend on callers setting it.
func (d *Due) BeforeCreate(tx *gorm.DB) error {
	if d.Year == 0 && !d.DueDate.IsZero() {
		d.Year = d.DueDate.Year()
	}
	if d.AssignedAt.IsZero() {
		d.AssignedAt = time.Now()
	}
	return nil
}

// Recalculate recomputes the derived fields from the base amount, the loaded
// penalty list and AmountPaid. It is a pure function of its inputs plus the
// supplied clock: running it again with the same inputs yields the same
// result. Callers must have Penalties loaded.
func (d *Due) Recalculate(now time.Time) {
	total := d.Amount
	for _, p := range d.Penalties {
		total += p.Amount
	}
	d.TotalAmount = total
	d.Balance = total - d.AmountPaid

	switch {
	case d.Balance <= 0:
		d.PaymentStatus = PaymentStatusPaid
	case d.AmountPaid > 0:
		d.PaymentStatus = PaymentStatusPartiallyPaid
	case now.After(d.DueDate):
		d.PaymentStatus = PaymentStatusOverdue
	default:
		d.PaymentStatus = PaymentStatusPending
	}
}

// PenaltyTotal sums the loaded penalty list.
func (d Due) PenaltyTotal() float64 {
	var sum float64
	for _, p := range d.Penalties {
		sum += p.Amount
	}
	return sum
}
