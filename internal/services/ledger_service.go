package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pharmassoc_api/internal/models"
)

// LedgerService owns every mutation of a due's ledger: penalties, payment
// submissions and the review workflow. All multi-field recomputes run inside
// a transaction holding a FOR UPDATE lock on the due row, so concurrent
// penalty additions and approvals against the same due serialize instead of
// losing updates.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// SubmitPaymentInput carries a claimed payment against a due.
type SubmitPaymentInput struct {
	Amount           float64
	PaymentMethod    models.PaymentMethod
	PaymentGateway   models.PaymentGateway
	PaymentReference string
	ReceiptURL       string
	SubmittedBy      uint
}

// AddPenalty appends one penalty to a due and recomputes the derived fields.
// Penalties are append-only: there is no removal counterpart.
func (s *LedgerService) AddPenalty(ctx context.Context, dueID uint, amount float64, reason string, actor uint) (*models.Due, error) {
	if amount <= 0 {
		return nil, NewValidationError("amount", "penalty amount must be greater than zero")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, NewValidationError("reason", "penalty reason is required")
	}

	var due models.Due
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockDue(tx, dueID, &due); err != nil {
			return err
		}

		now := time.Now()
		penalty := models.Penalty{
			DueID:   due.ID,
			Amount:  amount,
			Reason:  reason,
			AddedBy: actor,
			AddedAt: now,
		}
		if err := tx.Create(&penalty).Error; err != nil {
			return err
		}

		if err := tx.Where("due_id = ?", due.ID).Order("id").Find(&due.Penalties).Error; err != nil {
			return err
		}
		due.Recalculate(now)
		return saveDerived(tx, &due)
	})
	if err != nil {
		return nil, err
	}
	return &due, nil
}

// SubmitPayment records a pending payment claim. The amount must not exceed
// the due's current balance; overpayment is an error, never a silent clamp.
func (s *LedgerService) SubmitPayment(ctx context.Context, dueID uint, in SubmitPaymentInput) (*models.PaymentSubmission, error) {
	if in.Amount <= 0 {
		return nil, NewValidationError("amount", "payment amount must be greater than zero")
	}
	if !in.PaymentMethod.Valid() {
		return nil, NewValidationError("paymentMethod", "unsupported payment method %q", in.PaymentMethod)
	}
	if strings.TrimSpace(in.ReceiptURL) == "" {
		return nil, NewValidationError("receiptUrl", "payment evidence is required")
	}
	if in.PaymentGateway == "" {
		in.PaymentGateway = models.PaymentGatewayManual
	}

	var submission models.PaymentSubmission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var due models.Due
		if err := lockDue(tx, dueID, &due); err != nil {
			return err
		}
		if err := tx.Where("due_id = ?", due.ID).Find(&due.Penalties).Error; err != nil {
			return err
		}

		now := time.Now()
		due.Recalculate(now)
		if in.Amount > due.Balance {
			return NewValidationError("amount", "payment of %.2f exceeds outstanding balance of %.2f", in.Amount, due.Balance)
		}

		submission = models.PaymentSubmission{
			DueID:            due.ID,
			PharmacyID:       due.PharmacyID,
			Amount:           in.Amount,
			PaymentMethod:    in.PaymentMethod,
			PaymentGateway:   in.PaymentGateway,
			PaymentReference: in.PaymentReference,
			ReceiptURL:       in.ReceiptURL,
			Status:           models.SubmissionPending,
			SubmittedBy:      in.SubmittedBy,
			SubmittedAt:      now,
		}
		return tx.Create(&submission).Error
	})
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// ApprovePayment moves a pending submission to approved and credits the
// due's AmountPaid. Approving a terminal submission fails with a StateError
// and never double-credits.
func (s *LedgerService) ApprovePayment(ctx context.Context, submissionID, actor uint) (*models.PaymentSubmission, error) {
	var submission models.PaymentSubmission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&submission, submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("payment submission", submissionID)
			}
			return err
		}

		var due models.Due
		if err := lockDue(tx, submission.DueID, &due); err != nil {
			return err
		}
		if err := tx.Where("due_id = ?", due.ID).Find(&due.Penalties).Error; err != nil {
			return err
		}

		now := time.Now()
		due.Recalculate(now)
		if err := approveSubmission(&due, &submission, actor, now); err != nil {
			return err
		}

		if err := tx.Model(&submission).Updates(map[string]interface{}{
			"status":      submission.Status,
			"approved_by": submission.ApprovedBy,
			"approved_at": submission.ApprovedAt,
		}).Error; err != nil {
			return err
		}
		return saveDerived(tx, &due)
	})
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// RejectPayment moves a pending submission to rejected. Terminal, no ledger
// effect.
func (s *LedgerService) RejectPayment(ctx context.Context, submissionID, actor uint, reason string) (*models.PaymentSubmission, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, NewValidationError("rejectionReason", "rejection reason is required")
	}

	var submission models.PaymentSubmission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&submission, submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("payment submission", submissionID)
			}
			return err
		}

		if err := rejectSubmission(&submission, reason); err != nil {
			return err
		}

		return tx.Model(&submission).Updates(map[string]interface{}{
			"status":           submission.Status,
			"rejection_reason": submission.RejectionReason,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// RefreshDue reloads a due with its penalties and recomputes the derived
// fields in memory, so a due that slipped past its date reads as overdue
// without waiting for the background sweep.
func (s *LedgerService) RefreshDue(ctx context.Context, dueID uint) (*models.Due, error) {
	var due models.Due
	err := s.db.WithContext(ctx).
		Preload("Penalties").
		Preload("DueType").
		Preload("Pharmacy").
		Preload("Payments").
		First(&due, dueID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("due", dueID)
		}
		return nil, err
	}
	due.Recalculate(time.Now())
	return &due, nil
}

// approveSubmission applies the pending -> approved transition to the loaded
// pair. Pure: callers persist the mutated structs.
func approveSubmission(due *models.Due, submission *models.PaymentSubmission, actor uint, now time.Time) error {
	if submission.Terminal() {
		return NewStateError("payment submission %d is already %s", submission.ID, submission.Status)
	}
	if submission.Amount > due.Balance {
		return NewValidationError("amount", "approving %.2f would exceed the outstanding balance of %.2f", submission.Amount, due.Balance)
	}

	submission.Status = models.SubmissionApproved
	submission.ApprovedBy = &actor
	submission.ApprovedAt = &now

	due.AmountPaid += submission.Amount
	due.Recalculate(now)
	return nil
}

// rejectSubmission applies the pending -> rejected transition. Pure. Only
// the rejection reason is stored on the row; ApprovedBy stays reserved for
// approvals.
func rejectSubmission(submission *models.PaymentSubmission, reason string) error {
	if submission.Terminal() {
		return NewStateError("payment submission %d is already %s", submission.ID, submission.Status)
	}
	submission.Status = models.SubmissionRejected
	submission.RejectionReason = reason
	return nil
}

func lockDue(tx *gorm.DB, dueID uint, due *models.Due) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(due, dueID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError("due", dueID)
	}
	return err
}

func saveDerived(tx *gorm.DB, due *models.Due) error {
	return tx.Model(due).Updates(map[string]interface{}{
		"amount_paid":    due.AmountPaid,
		"total_amount":   due.TotalAmount,
		"balance":        due.Balance,
		"payment_status": due.PaymentStatus,
	}).Error
}
