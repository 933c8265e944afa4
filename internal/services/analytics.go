package services

import (
	"context"

	"pharmassoc_api/internal/models"
)

// YearTotals aggregates the ledger for one billing year.
type YearTotals struct {
	Year           int     `json:"year"`
	Count          int64   `json:"count"`
	TotalBilled    float64 `json:"totalBilled"`
	TotalCollected float64 `json:"totalCollected"`
	Outstanding    float64 `json:"outstanding"`
}

// DuesAnalytics is the dashboard summary over the whole due ledger.
type DuesAnalytics struct {
	TotalDues        int64            `json:"totalDues"`
	TotalBilled      float64          `json:"totalBilled"`
	TotalCollected   float64          `json:"totalCollected"`
	TotalOutstanding float64          `json:"totalOutstanding"`
	ByStatus         map[string]int64 `json:"byStatus"`
	ByYear           []YearTotals     `json:"byYear"`
}

// Analytics aggregates dues by status and year. Values are read straight
// from the stored derived columns; the overdue sweep keeps those current.
func (s *LedgerService) Analytics(ctx context.Context) (*DuesAnalytics, error) {
	out := &DuesAnalytics{ByStatus: make(map[string]int64)}

	type totalsRow struct {
		Count       int64
		Billed      float64
		Collected   float64
		Outstanding float64
	}
	var totals totalsRow
	err := s.db.WithContext(ctx).Model(&models.Due{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_amount),0) AS billed, COALESCE(SUM(amount_paid),0) AS collected, COALESCE(SUM(balance),0) AS outstanding").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	out.TotalDues = totals.Count
	out.TotalBilled = totals.Billed
	out.TotalCollected = totals.Collected
	out.TotalOutstanding = totals.Outstanding

	type statusRow struct {
		PaymentStatus string
		Count         int64
	}
	var statuses []statusRow
	err = s.db.WithContext(ctx).Model(&models.Due{}).
		Select("payment_status, COUNT(*) AS count").
		Group("payment_status").
		Scan(&statuses).Error
	if err != nil {
		return nil, err
	}
	for _, row := range statuses {
		out.ByStatus[row.PaymentStatus] = row.Count
	}

	err = s.db.WithContext(ctx).Model(&models.Due{}).
		Select("year, COUNT(*) AS count, COALESCE(SUM(total_amount),0) AS total_billed, COALESCE(SUM(amount_paid),0) AS total_collected, COALESCE(SUM(balance),0) AS outstanding").
		Group("year").
		Order("year").
		Scan(&out.ByYear).Error
	if err != nil {
		return nil, err
	}

	return out, nil
}
