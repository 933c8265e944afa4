package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentMethod is the channel a payment was made through
type PaymentMethod string

const (
	MethodBankTransfer  PaymentMethod = "bank_transfer"
	MethodCash          PaymentMethod = "cash"
	MethodCheque        PaymentMethod = "cheque"
	MethodMobilePayment PaymentMethod = "mobile_payment"
)

// Valid reports whether the method is one of the supported values.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodBankTransfer, MethodCash, MethodCheque, MethodMobilePayment:
		return true
	}
	return false
}

// SubmissionStatus is the review state of a payment submission
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// PaymentGateway identifies how a payment entered the system
type PaymentGateway string

const (
	PaymentGatewayManual   PaymentGateway = "manual"
	PaymentGatewayMidtrans PaymentGateway = "midtrans"
)

// PaymentSubmission is a claimed payment against a due. It is created in
// pending and reviewed exactly once: approved credits the due's AmountPaid,
// rejected is terminal with no ledger effect. Neither terminal state can be
// left again.
type PaymentSubmission struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	DueID      uint `gorm:"index" json:"dueId"`
	PharmacyID uint `gorm:"index" json:"pharmacyId"`

	Amount           float64        `gorm:"type:decimal(15,2)" json:"amount"`
	PaymentMethod    PaymentMethod  `gorm:"type:varchar(50)" json:"paymentMethod"`
	PaymentGateway   PaymentGateway `gorm:"type:varchar(50);default:'manual'" json:"paymentGateway"`
	PaymentReference string         `gorm:"type:varchar(255)" json:"paymentReference,omitempty"`
	ReceiptURL       string         `gorm:"type:text" json:"receiptUrl"`

	Status          SubmissionStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ApprovedBy      *uint            `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time       `json:"approvedAt,omitempty"`
	RejectionReason string           `gorm:"type:text" json:"rejectionReason,omitempty"`

	SubmittedBy uint      `json:"submittedBy"`
	SubmittedAt time.Time `json:"submittedAt"`

	// Relationships
	Due      Due      `gorm:"foreignKey:DueID" json:"due,omitempty"`
	Pharmacy Pharmacy `gorm:"foreignKey:PharmacyID" json:"-"`
}

// Terminal reports whether the submission has reached a final review state.
func (s PaymentSubmission) Terminal() bool {
	return s.Status == SubmissionApproved || s.Status == SubmissionRejected
}
