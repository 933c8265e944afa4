package models

import (
	"testing"
	"time"
)

func TestRecurringPeriodRRule(t *testing.T) {
	tests := []struct {
		period RecurringPeriod
		want   string
	}{
		{PeriodMonthly, "FREQ=MONTHLY"},
		{PeriodQuarterly, "FREQ=MONTHLY;INTERVAL=3"},
		{PeriodSemiAnnual, "FREQ=MONTHLY;INTERVAL=6"},
		{PeriodAnnual, "FREQ=YEARLY"},
		{RecurringPeriod("weekly"), ""},
	}

	for _, tt := range tests {
		if got := tt.period.RRule(); got != tt.want {
			t.Errorf("RRule(%q) = %q, want %q", tt.period, got, tt.want)
		}
	}
}

func TestRecurringPeriodValid(t *testing.T) {
	for _, p := range []RecurringPeriod{PeriodMonthly, PeriodQuarterly, PeriodSemiAnnual, PeriodAnnual} {
		if !p.Valid() {
			t.Errorf("Valid(%q) = false, want true", p)
		}
	}
	if RecurringPeriod("daily").Valid() {
		t.Error("Valid(\"daily\") = true, want false")
	}
}

func TestDueTypeNextOccurrence(t *testing.T) {
	anchor := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	monthly := PeriodMonthly
	quarterly := PeriodQuarterly
	annual := PeriodAnnual

	tests := []struct {
		name    string
		dueType DueType
		after   time.Time
		want    time.Time
	}{
		{
			name:    "monthly advances one month",
			dueType: DueType{IsRecurring: true, RecurringPeriod: &monthly},
			after:   time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			want:    time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "quarterly advances three months",
			dueType: DueType{IsRecurring: true, RecurringPeriod: &quarterly},
			after:   time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			want:    time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "annual advances one year",
			dueType: DueType{IsRecurring: true, RecurringPeriod: &annual},
			after:   anchor,
			want:    time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "non-recurring has no next occurrence",
			dueType: DueType{IsRecurring: false},
			after:   anchor,
			want:    time.Time{},
		},
		{
			name:    "recurring without a period has no next occurrence",
			dueType: DueType{IsRecurring: true},
			after:   anchor,
			want:    time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.dueType.NextOccurrence(tt.after)
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence(%s) = %s, want %s", tt.after, got, tt.want)
			}
		})
	}
}
