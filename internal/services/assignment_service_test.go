package services

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"pharmassoc_api/internal/models"
)

func TestBuildTemplate(t *testing.T) {
	dueDate := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("due type fills title, description and amount", func(t *testing.T) {
		tmpl := &dueTemplate{
			dueType: &models.DueType{Name: "Annual Dues", Description: "Yearly subscription", DefaultAmount: 25000, IsActive: true},
			dueDate: dueDate,
		}

		if err := buildTemplate(tmpl, nil); err != nil {
			t.Fatalf("buildTemplate() error = %v", err)
		}
		if tmpl.title != "Annual Dues" {
			t.Errorf("title = %q, want due type name", tmpl.title)
		}
		if tmpl.description != "Yearly subscription" {
			t.Errorf("description = %q", tmpl.description)
		}
		if tmpl.amount != 25000 {
			t.Errorf("amount = %.2f, want 25000", tmpl.amount)
		}
	})

	t.Run("explicit amount overrides the default", func(t *testing.T) {
		override := 30000.0
		tmpl := &dueTemplate{
			dueType: &models.DueType{Name: "Annual Dues", DefaultAmount: 25000, IsActive: true},
			dueDate: dueDate,
		}

		if err := buildTemplate(tmpl, &override); err != nil {
			t.Fatalf("buildTemplate() error = %v", err)
		}
		if tmpl.amount != 30000 {
			t.Errorf("amount = %.2f, want the override", tmpl.amount)
		}
	})

	t.Run("inactive due type is refused", func(t *testing.T) {
		tmpl := &dueTemplate{
			dueType: &models.DueType{Name: "Old Levy", DefaultAmount: 1000, IsActive: false},
			dueDate: dueDate,
		}

		err := buildTemplate(tmpl, nil)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("buildTemplate() error = %v, want ValidationError", err)
		}
	})

	t.Run("ad hoc due requires a title", func(t *testing.T) {
		amount := 1500.0
		tmpl := &dueTemplate{dueDate: dueDate}

		err := buildTemplate(tmpl, &amount)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("buildTemplate() error = %v, want ValidationError", err)
		}
		if validationErr.Field != "title" {
			t.Errorf("Field = %q, want title", validationErr.Field)
		}
	})

	t.Run("non-positive amount is refused", func(t *testing.T) {
		amount := 0.0
		tmpl := &dueTemplate{title: "Building Levy", dueDate: dueDate}

		err := buildTemplate(tmpl, &amount)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("buildTemplate() error = %v, want ValidationError", err)
		}
	})
}

func TestBuildDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	dueDate := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)

	t.Run("ad hoc due", func(t *testing.T) {
		tmpl := &dueTemplate{title: "Building Levy", amount: 1500, dueDate: dueDate, assignedBy: 3}
		due := buildDue(tmpl, 42, models.AssignmentIndividual, now)

		if due.PharmacyID != 42 {
			t.Errorf("PharmacyID = %d, want 42", due.PharmacyID)
		}
		if due.DueTypeID != nil {
			t.Errorf("DueTypeID = %v, want nil for ad hoc dues", due.DueTypeID)
		}
		if due.Year != 2025 {
			t.Errorf("Year = %d, want 2025", due.Year)
		}
		if due.Balance != 1500 || due.TotalAmount != 1500 {
			t.Errorf("Balance/TotalAmount = %.2f/%.2f, want 1500", due.Balance, due.TotalAmount)
		}
		if due.PaymentStatus != models.PaymentStatusPending {
			t.Errorf("PaymentStatus = %s, want pending", due.PaymentStatus)
		}
		if due.IsRecurring {
			t.Error("IsRecurring = true, want false")
		}
	})

	t.Run("recurring typed due carries the next occurrence", func(t *testing.T) {
		quarterly := models.PeriodQuarterly
		tmpl := &dueTemplate{
			dueType: &models.DueType{ID: 9, Name: "Quarterly Levy", DefaultAmount: 5000, IsRecurring: true, RecurringPeriod: &quarterly, IsActive: true},
			title:   "Quarterly Levy",
			amount:  5000,
			dueDate: dueDate,
		}
		due := buildDue(tmpl, 42, models.AssignmentBulk, now)

		if due.DueTypeID == nil || *due.DueTypeID != 9 {
			t.Fatalf("DueTypeID = %v, want 9", due.DueTypeID)
		}
		if !due.IsRecurring {
			t.Fatal("IsRecurring = false, want true")
		}
		if due.NextDueDate == nil {
			t.Fatal("NextDueDate = nil, want the next quarter")
		}
		want := time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)
		if !due.NextDueDate.Equal(want) {
			t.Errorf("NextDueDate = %s, want %s", due.NextDueDate, want)
		}
	})
}

func TestSubAnnual(t *testing.T) {
	monthly := models.PeriodMonthly
	annual := models.PeriodAnnual

	tests := []struct {
		name    string
		dueType models.DueType
		want    bool
	}{
		{"monthly", models.DueType{IsRecurring: true, RecurringPeriod: &monthly}, true},
		{"annual", models.DueType{IsRecurring: true, RecurringPeriod: &annual}, false},
		{"non-recurring", models.DueType{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := subAnnual(&tt.dueType); got != tt.want {
				t.Errorf("subAnnual() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedupeIDs(t *testing.T) {
	got := dedupeIDs([]uint{5, 3, 5, 1, 3, 9})
	want := []uint{1, 3, 5, 9}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("dedupeIDs() = %v, want %v", got, want)
	}

	if got := dedupeIDs(nil); len(got) != 0 {
		t.Errorf("dedupeIDs(nil) = %v, want empty", got)
	}
}
