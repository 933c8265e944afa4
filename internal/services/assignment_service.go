package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"pharmassoc_api/internal/models"
)

// bulkAssignWorkers bounds the fan-out of independent per-pharmacy writes.
const bulkAssignWorkers = 8

// AssignmentService creates dues, one at a time or as a best-effort batch.
// The yearly uniqueness policy for recurring due types - at most one due per
// (pharmacy, dueType, year) - is enforced here, not by a database constraint.
type AssignmentService struct {
	db *gorm.DB
}

func NewAssignmentService(db *gorm.DB) *AssignmentService {
	return &AssignmentService{db: db}
}

// PharmacyFilter selects bulk-assignment targets by registration criteria.
type PharmacyFilter struct {
	RegistrationStatus models.RegistrationStatus `json:"registrationStatus,omitempty"`
	State              string                    `json:"state,omitempty"`
	LGA                string                    `json:"lga,omitempty"`
	RegisteredYear     int                       `json:"registeredYear,omitempty"`
}

// AssignInput describes the due to create, either from a due type template
// or ad hoc with an explicit amount and title.
type AssignInput struct {
	DueTypeID   *uint
	Title       string
	Description string
	Amount      *float64
	DueDate     time.Time
	AssignedBy  uint
}

// BulkAssignInput is AssignInput fanned out over a set of target pharmacies,
// selected explicitly or by filter.
type BulkAssignInput struct {
	AssignInput
	PharmacyIDs []uint
	Filter      *PharmacyFilter
}

// BulkAssignItem is the per-pharmacy outcome of a bulk assignment.
type BulkAssignItem struct {
	PharmacyID uint   `json:"pharmacyId"`
	DueID      uint   `json:"dueId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BulkAssignReport summarizes a best-effort batch: per-item outcomes instead
// of all-or-nothing semantics.
type BulkAssignReport struct {
	Requested int              `json:"requested"`
	Created   int              `json:"created"`
	Failed    int              `json:"failed"`
	Items     []BulkAssignItem `json:"items"`
}

// dueTemplate is the resolved shape shared by every due in an assignment.
type dueTemplate struct {
	dueType     *models.DueType
	title       string
	description string
	amount      float64
	dueDate     time.Time
	assignedBy  uint
}

// AssignIndividual creates a single due for one pharmacy.
func (s *AssignmentService) AssignIndividual(ctx context.Context, pharmacyID uint, in AssignInput) (*models.Due, error) {
	tmpl, err := s.resolveTemplate(ctx, in)
	if err != nil {
		return nil, err
	}

	var pharmacy models.Pharmacy
	if err := s.db.WithContext(ctx).First(&pharmacy, pharmacyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("pharmacy", pharmacyID)
		}
		return nil, err
	}

	due, err := s.createDue(ctx, pharmacyID, tmpl, models.AssignmentIndividual)
	if err != nil {
		return nil, err
	}
	return due, nil
}

// BulkAssign creates one due per target pharmacy. Writes are independent and
// run on a bounded worker pool; failures (including yearly duplicates) are
// reported per item and never abort the batch.
func (s *AssignmentService) BulkAssign(ctx context.Context, in BulkAssignInput) (*BulkAssignReport, error) {
	tmpl, err := s.resolveTemplate(ctx, in.AssignInput)
	if err != nil {
		return nil, err
	}

	targets, err := s.resolveTargets(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, NewValidationError("pharmacyIds", "no target pharmacies matched the selection")
	}

	report := &BulkAssignReport{
		Requested: len(targets),
		Items:     make([]BulkAssignItem, len(targets)),
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, bulkAssignWorkers)
	for i, pharmacyID := range targets {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, pharmacyID uint) {
			defer wg.Done()
			defer func() { <-sem }()

			item := BulkAssignItem{PharmacyID: pharmacyID}
			due, err := s.createDue(ctx, pharmacyID, tmpl, models.AssignmentBulk)
			if err != nil {
				item.Error = err.Error()
			} else {
				item.DueID = due.ID
			}
			report.Items[i] = item
		}(i, pharmacyID)
	}
	wg.Wait()

	for _, item := range report.Items {
		if item.Error == "" {
			report.Created++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

// resolveTemplate validates the assignment input and resolves the due type
// reference into the concrete title/amount every created due will share.
func (s *AssignmentService) resolveTemplate(ctx context.Context, in AssignInput) (*dueTemplate, error) {
	if in.DueDate.IsZero() {
		return nil, NewValidationError("dueDate", "due date is required")
	}

	tmpl := &dueTemplate{
		title:       strings.TrimSpace(in.Title),
		description: in.Description,
		dueDate:     in.DueDate,
		assignedBy:  in.AssignedBy,
	}

	if in.DueTypeID != nil {
		var dueType models.DueType
		if err := s.db.WithContext(ctx).First(&dueType, *in.DueTypeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NewNotFoundError("due type", *in.DueTypeID)
			}
			return nil, err
		}
		tmpl.dueType = &dueType
	}

	return tmpl, buildTemplate(tmpl, in.Amount)
}

// buildTemplate finishes template resolution from the optional overrides.
// Split out of resolveTemplate so the validation rules are testable without
// a database.
func buildTemplate(tmpl *dueTemplate, amountOverride *float64) error {
	if tmpl.dueType != nil {
		if !tmpl.dueType.IsActive {
			return NewValidationError("dueTypeId", "due type %q is inactive and cannot be assigned", tmpl.dueType.Name)
		}
		if tmpl.title == "" {
			tmpl.title = tmpl.dueType.Name
		}
		if tmpl.description == "" {
			tmpl.description = tmpl.dueType.Description
		}
		tmpl.amount = tmpl.dueType.DefaultAmount
	}

	if amountOverride != nil {
		tmpl.amount = *amountOverride
	}

	if tmpl.title == "" {
		return NewValidationError("title", "title is required for ad hoc dues")
	}
	if tmpl.amount <= 0 {
		return NewValidationError("amount", "due amount must be greater than zero")
	}
	return nil
}

// buildDue materializes the template for one pharmacy. Pure.
func buildDue(tmpl *dueTemplate, pharmacyID uint, assignment models.AssignmentType, now time.Time) models.Due {
	due := models.Due{
		PharmacyID:     pharmacyID,
		Title:          tmpl.title,
		Description:    tmpl.description,
		Amount:         tmpl.amount,
		DueDate:        tmpl.dueDate,
		Year:           tmpl.dueDate.Year(),
		AssignmentType: assignment,
		AssignedBy:     tmpl.assignedBy,
		AssignedAt:     now,
		TotalAmount:    tmpl.amount,
		Balance:        tmpl.amount,
		PaymentStatus:  models.PaymentStatusPending,
	}

	if tmpl.dueType != nil {
		id := tmpl.dueType.ID
		due.DueTypeID = &id
		if tmpl.dueType.IsRecurring {
			due.IsRecurring = true
			if next := tmpl.dueType.NextOccurrence(tmpl.dueDate); !next.IsZero() {
				due.NextDueDate = &next
			}
		}
	}
	return due
}

// InstantiateNext creates the next period's due for a paid recurring due.
// The source due is never mutated; a ConflictError means the period was
// already billed.
func (s *AssignmentService) InstantiateNext(ctx context.Context, due models.Due, dueType models.DueType) (*models.Due, error) {
	if due.NextDueDate == nil {
		return nil, NewStateError("due %d has no next due date", due.ID)
	}

	tmpl := &dueTemplate{
		dueType:     &dueType,
		dueDate:     *due.NextDueDate,
		description: due.Description,
		assignedBy:  due.AssignedBy,
	}
	if err := buildTemplate(tmpl, nil); err != nil {
		return nil, err
	}
	return s.createDue(ctx, due.PharmacyID, tmpl, due.AssignmentType)
}

// createDue enforces the duplicate policy and inserts the due. Typed dues
// are unique per (pharmacy, dueType, year); for types recurring more often
// than yearly the exact due date scopes the check instead, since several
// periods legitimately fall in one year.
func (s *AssignmentService) createDue(ctx context.Context, pharmacyID uint, tmpl *dueTemplate, assignment models.AssignmentType) (*models.Due, error) {
	due := buildDue(tmpl, pharmacyID, assignment, time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tmpl.dueType != nil {
			query := tx.Model(&models.Due{}).
				Where("pharmacy_id = ? AND due_type_id = ?", pharmacyID, tmpl.dueType.ID)
			if subAnnual(tmpl.dueType) {
				query = query.Where("due_date = ?", due.DueDate)
			} else {
				query = query.Where("year = ?", due.Year)
			}

			var count int64
			if err := query.Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return NewConflictError("pharmacy %d already has a %q due for %d", pharmacyID, tmpl.dueType.Name, due.Year)
			}
		}
		return tx.Create(&due).Error
	})
	if err != nil {
		return nil, err
	}
	return &due, nil
}

// subAnnual reports whether a recurring type repeats more often than yearly.
func subAnnual(dt *models.DueType) bool {
	return dt.IsRecurring && dt.RecurringPeriod != nil && *dt.RecurringPeriod != models.PeriodAnnual
}

// resolveTargets turns explicit ids or filter criteria into a deduplicated
// pharmacy id list.
func (s *AssignmentService) resolveTargets(ctx context.Context, in BulkAssignInput) ([]uint, error) {
	if len(in.PharmacyIDs) > 0 {
		return dedupeIDs(in.PharmacyIDs), nil
	}
	if in.Filter == nil {
		return nil, NewValidationError("pharmacyIds", "either pharmacy ids or a filter is required")
	}

	query := s.db.WithContext(ctx).Model(&models.Pharmacy{})
	if in.Filter.RegistrationStatus != "" {
		query = query.Where("registration_status = ?", in.Filter.RegistrationStatus)
	}
	if in.Filter.State != "" {
		query = query.Where("state = ?", in.Filter.State)
	}
	if in.Filter.LGA != "" {
		query = query.Where("lga = ?", in.Filter.LGA)
	}
	if in.Filter.RegisteredYear > 0 {
		query = query.Where("EXTRACT(YEAR FROM registered_at) = ?", in.Filter.RegisteredYear)
	}

	var ids []uint
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
