package services

import "testing"

func TestAttendanceRate(t *testing.T) {
	tests := []struct {
		name          string
		present       int
		totalMeetings int
		want          float64
	}{
		{"perfect attendance", 10, 10, 1.0},
		{"half attendance", 5, 10, 0.5},
		{"no attendance", 0, 10, 0},
		{"zero meetings guarded to zero", 3, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := attendanceRate(tt.present, tt.totalMeetings); got != tt.want {
				t.Errorf("attendanceRate(%d, %d) = %v, want %v", tt.present, tt.totalMeetings, got, tt.want)
			}
		})
	}
}

func TestAttendancePenalty(t *testing.T) {
	tests := []struct {
		name       string
		rate       float64
		annualDues float64
		want       float64
	}{
		{"below threshold pays half annual dues", 0.4, 25000, 12500},
		{"exactly at threshold is not penalized", 0.5, 25000, 0},
		{"above threshold is not penalized", 0.8, 25000, 0},
		{"zero attendance pays half annual dues", 0, 25000, 12500},
		{"no annual dues means no penalty", 0.1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := attendancePenalty(tt.rate, tt.annualDues); got != tt.want {
				t.Errorf("attendancePenalty(%v, %v) = %v, want %v", tt.rate, tt.annualDues, got, tt.want)
			}
		})
	}
}
