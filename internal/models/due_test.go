package models

import (
	"testing"
	"time"
)

func TestDueRecalculate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 1, 0)
	past := now.AddDate(0, -1, 0)

	tests := []struct {
		name        string
		due         Due
		wantTotal   float64
		wantBalance float64
		wantStatus  PaymentStatus
	}{
		{
			name:        "unpaid before due date",
			due:         Due{Amount: 5000, DueDate: future},
			wantTotal:   5000,
			wantBalance: 5000,
			wantStatus:  PaymentStatusPending,
		},
		{
			name:        "unpaid past due date",
			due:         Due{Amount: 5000, DueDate: past},
			wantTotal:   5000,
			wantBalance: 5000,
			wantStatus:  PaymentStatusOverdue,
		},
		{
			name:        "partial payment past due date stays partially paid",
			due:         Due{Amount: 5000, AmountPaid: 2000, DueDate: past},
			wantTotal:   5000,
			wantBalance: 3000,
			wantStatus:  PaymentStatusPartiallyPaid,
		},
		{
			name:        "fully paid",
			due:         Due{Amount: 5000, AmountPaid: 5000, DueDate: past},
			wantTotal:   5000,
			wantBalance: 0,
			wantStatus:  PaymentStatusPaid,
		},
		{
			name: "penalties raise the total and balance",
			due: Due{
				Amount:  5000,
				DueDate: future,
				Penalties: []Penalty{
					{Amount: 500},
					{Amount: 250},
				},
			},
			wantTotal:   5750,
			wantBalance: 5750,
			wantStatus:  PaymentStatusPending,
		},
		{
			name: "penalty reopens a settled due",
			due: Due{
				Amount:     5000,
				AmountPaid: 5000,
				DueDate:    past,
				Penalties:  []Penalty{{Amount: 500}},
			},
			wantTotal:   5500,
			wantBalance: 500,
			wantStatus:  PaymentStatusPartiallyPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due := tt.due
			due.Recalculate(now)

			if due.TotalAmount != tt.wantTotal {
				t.Errorf("TotalAmount = %.2f, want %.2f", due.TotalAmount, tt.wantTotal)
			}
			if due.Balance != tt.wantBalance {
				t.Errorf("Balance = %.2f, want %.2f", due.Balance, tt.wantBalance)
			}
			if due.PaymentStatus != tt.wantStatus {
				t.Errorf("PaymentStatus = %s, want %s", due.PaymentStatus, tt.wantStatus)
			}
		})
	}
}

func TestDueRecalculateIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	due := Due{
		Amount:     5000,
		AmountPaid: 2000,
		DueDate:    now.AddDate(0, -1, 0),
		Penalties:  []Penalty{{Amount: 300}},
	}

	due.Recalculate(now)
	first := due
	due.Recalculate(now)

	if due.TotalAmount != first.TotalAmount || due.Balance != first.Balance || due.PaymentStatus != first.PaymentStatus {
		t.Errorf("second Recalculate changed derived fields: %+v vs %+v", due, first)
	}
}

func TestDuePenaltyTotal(t *testing.T) {
	due := Due{Penalties: []Penalty{{Amount: 100}, {Amount: 250.5}}}
	if got := due.PenaltyTotal(); got != 350.5 {
		t.Errorf("PenaltyTotal() = %.2f, want 350.50", got)
	}

	empty := Due{}
	if got := empty.PenaltyTotal(); got != 0 {
		t.Errorf("PenaltyTotal() on empty list = %.2f, want 0", got)
	}
}
