package tasks

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"pharmassoc_api/internal/models"
	"pharmassoc_api/internal/services"
)

// GenerateRecurringDuesTaskDef instantiates the next period's due for paid
// recurring dues whose next due date has arrived. Existing dues are never
// mutated; each period is a fresh ledger entry.
type GenerateRecurringDuesTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *GenerateRecurringDuesTaskDef) TaskID() string {
	return "generate_recurring_dues"
}

// HandleExecution scans for due periods and creates them one by one.
func (t *GenerateRecurringDuesTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	assigner := services.NewAssignmentService(db)

	var candidates []models.Due
	err := db.WithContext(ctx).
		Where("is_recurring = ? AND payment_status = ? AND due_type_id IS NOT NULL AND next_due_date IS NOT NULL AND next_due_date <= ?",
			true, models.PaymentStatusPaid, time.Now()).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	created := 0
	skipped := 0
	failed := 0
	for _, due := range candidates {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var dueType models.DueType
		if err := db.WithContext(ctx).First(&dueType, *due.DueTypeID).Error; err != nil {
			log.Printf("recurring due %d: due type lookup failed: %v", due.ID, err)
			failed++
			continue
		}
		if !dueType.IsActive {
			// Deactivated types stop recurring; clear the marker so the
			// scan does not pick this due up again.
			db.WithContext(ctx).Model(&due).Update("next_due_date", nil)
			skipped++
			continue
		}

		_, err := assigner.InstantiateNext(ctx, due, dueType)
		var conflict *services.ConflictError
		switch {
		case err == nil:
			created++
		case errors.As(err, &conflict):
			// Period already billed, mark the source due as consumed
			skipped++
		default:
			log.Printf("recurring due %d: failed to instantiate next period: %v", due.ID, err)
			failed++
			continue
		}

		if err := db.WithContext(ctx).Model(&due).Update("next_due_date", nil).Error; err != nil {
			log.Printf("recurring due %d: failed to clear next due date: %v", due.ID, err)
		}
	}

	return map[string]interface{}{
		"status":  "success",
		"scanned": len(candidates),
		"created": created,
		"skipped": skipped,
		"failed":  failed,
	}, nil
}

// GenerateRecurringDuesTask is the singleton instance of GenerateRecurringDuesTaskDef
var GenerateRecurringDuesTask = &GenerateRecurringDuesTaskDef{}

// RefreshOverdueStatusesTaskDef flips stored pending statuses to overdue once
// the due date passes. The derived fields are otherwise only recomputed on
// mutation, so listings and analytics rely on this sweep staying scheduled.
type RefreshOverdueStatusesTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *RefreshOverdueStatusesTaskDef) TaskID() string {
	return "refresh_overdue_statuses"
}

// HandleExecution marks unpaid, past-date dues as overdue in one update.
func (t *RefreshOverdueStatusesTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	res := db.WithContext(ctx).Model(&models.Due{}).
		Where("payment_status = ? AND balance > 0 AND due_date < ?", models.PaymentStatusPending, time.Now()).
		Update("payment_status", models.PaymentStatusOverdue)
	if res.Error != nil {
		return nil, res.Error
	}

	return map[string]interface{}{
		"status":  "success",
		"updated": res.RowsAffected,
	}, nil
}

// RefreshOverdueStatusesTask is the singleton instance of RefreshOverdueStatusesTaskDef
var RefreshOverdueStatusesTask = &RefreshOverdueStatusesTaskDef{}
