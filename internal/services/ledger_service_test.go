package services

import (
	"errors"
	"testing"
	"time"

	"pharmassoc_api/internal/models"
)

func TestApproveSubmission(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("pending approval credits the due", func(t *testing.T) {
		due := models.Due{Amount: 5000, DueDate: now.AddDate(0, 1, 0)}
		due.Recalculate(now)
		submission := models.PaymentSubmission{ID: 1, Amount: 2000, Status: models.SubmissionPending}

		if err := approveSubmission(&due, &submission, 7, now); err != nil {
			t.Fatalf("approveSubmission() error = %v", err)
		}

		if submission.Status != models.SubmissionApproved {
			t.Errorf("Status = %s, want approved", submission.Status)
		}
		if submission.ApprovedBy == nil || *submission.ApprovedBy != 7 {
			t.Errorf("ApprovedBy = %v, want 7", submission.ApprovedBy)
		}
		if due.AmountPaid != 2000 {
			t.Errorf("AmountPaid = %.2f, want 2000", due.AmountPaid)
		}
		if due.Balance != 3000 {
			t.Errorf("Balance = %.2f, want 3000", due.Balance)
		}
		if due.PaymentStatus != models.PaymentStatusPartiallyPaid {
			t.Errorf("PaymentStatus = %s, want partially_paid", due.PaymentStatus)
		}
	})

	t.Run("full payment settles the due", func(t *testing.T) {
		due := models.Due{Amount: 5000, DueDate: now.AddDate(0, -1, 0)}
		due.Recalculate(now)
		submission := models.PaymentSubmission{ID: 2, Amount: 5000, Status: models.SubmissionPending}

		if err := approveSubmission(&due, &submission, 7, now); err != nil {
			t.Fatalf("approveSubmission() error = %v", err)
		}
		if due.PaymentStatus != models.PaymentStatusPaid {
			t.Errorf("PaymentStatus = %s, want paid", due.PaymentStatus)
		}
		if due.Balance != 0 {
			t.Errorf("Balance = %.2f, want 0", due.Balance)
		}
	})

	t.Run("approving twice never double-credits", func(t *testing.T) {
		due := models.Due{Amount: 5000, DueDate: now.AddDate(0, 1, 0)}
		due.Recalculate(now)
		submission := models.PaymentSubmission{ID: 3, Amount: 2000, Status: models.SubmissionPending}

		if err := approveSubmission(&due, &submission, 7, now); err != nil {
			t.Fatalf("first approveSubmission() error = %v", err)
		}

		err := approveSubmission(&due, &submission, 7, now)
		var stateErr *StateError
		if !errors.As(err, &stateErr) {
			t.Fatalf("second approveSubmission() error = %v, want StateError", err)
		}
		if due.AmountPaid != 2000 {
			t.Errorf("AmountPaid after replay = %.2f, want 2000", due.AmountPaid)
		}
	})

	t.Run("approval exceeding the balance is refused", func(t *testing.T) {
		due := models.Due{Amount: 5000, AmountPaid: 4000, DueDate: now.AddDate(0, 1, 0)}
		due.Recalculate(now)
		submission := models.PaymentSubmission{ID: 4, Amount: 2000, Status: models.SubmissionPending}

		err := approveSubmission(&due, &submission, 7, now)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("approveSubmission() error = %v, want ValidationError", err)
		}
		if submission.Status != models.SubmissionPending {
			t.Errorf("Status = %s, want pending after refused approval", submission.Status)
		}
		if due.AmountPaid != 4000 {
			t.Errorf("AmountPaid = %.2f, want 4000", due.AmountPaid)
		}
	})

	t.Run("rejected submission cannot be approved", func(t *testing.T) {
		due := models.Due{Amount: 5000, DueDate: now.AddDate(0, 1, 0)}
		due.Recalculate(now)
		submission := models.PaymentSubmission{ID: 5, Amount: 2000, Status: models.SubmissionRejected}

		err := approveSubmission(&due, &submission, 7, now)
		var stateErr *StateError
		if !errors.As(err, &stateErr) {
			t.Fatalf("approveSubmission() error = %v, want StateError", err)
		}
	})
}

func TestRejectSubmission(t *testing.T) {
	t.Run("pending rejection stores the reason", func(t *testing.T) {
		submission := models.PaymentSubmission{ID: 1, Status: models.SubmissionPending}

		if err := rejectSubmission(&submission, "receipt is unreadable"); err != nil {
			t.Fatalf("rejectSubmission() error = %v", err)
		}
		if submission.Status != models.SubmissionRejected {
			t.Errorf("Status = %s, want rejected", submission.Status)
		}
		if submission.RejectionReason != "receipt is unreadable" {
			t.Errorf("RejectionReason = %q", submission.RejectionReason)
		}
	})

	t.Run("terminal submission cannot be rejected", func(t *testing.T) {
		submission := models.PaymentSubmission{ID: 2, Status: models.SubmissionApproved}

		err := rejectSubmission(&submission, "too late")
		var stateErr *StateError
		if !errors.As(err, &stateErr) {
			t.Fatalf("rejectSubmission() error = %v, want StateError", err)
		}
		if submission.Status != models.SubmissionApproved {
			t.Errorf("Status = %s, want approved to stay terminal", submission.Status)
		}
	})
}
