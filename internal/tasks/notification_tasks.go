package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"pharmassoc_api/internal/models"
	"pharmassoc_api/internal/services"
)

// WarningNotice is one attendance warning to deliver.
type WarningNotice struct {
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	Year           int     `json:"year"`
	AttendanceRate float64 `json:"attendanceRate"`
	Penalty        float64 `json:"penalty"`
}

// SendWarningNoticesArgs defines the arguments for the warning notice task
type SendWarningNoticesArgs struct {
	Notices      []WarningNotice `json:"notices"`
	AttemptCount int             `json:"attemptCount"`
}

// SendWarningNoticesTaskDef delivers attendance warning emails queued by the
// penalty evaluator. Partial failures are re-queued with only the failed
// recipients until the attempt budget runs out.
type SendWarningNoticesTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SendWarningNoticesTaskDef) TaskID() string {
	return services.TaskSendWarningNotices
}

// CreateTask builds a ScheduledTask record for this task
func (t *SendWarningNoticesTaskDef) CreateTask(args SendWarningNoticesArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution sends the notices one recipient at a time.
func (t *SendWarningNoticesTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var args SendWarningNoticesArgs
	if err := decodeArgs(task, &args); err != nil {
		return nil, err
	}

	emailService := services.NewEmailService()

	successCount := 0
	var failed []WarningNotice
	var failures []string
	for _, notice := range args.Notices {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		err := emailService.SendAttendanceWarning(notice.Email, notice.Name, notice.Year, notice.AttendanceRate, notice.Penalty)
		if err != nil {
			log.Printf("Failed to send attendance warning to %s: %v", notice.Email, err)
			failed = append(failed, notice)
			failures = append(failures, fmt.Sprintf("%s: %v", notice.Email, err))
			continue
		}
		successCount++
	}

	result := map[string]interface{}{
		"total":   len(args.Notices),
		"success": successCount,
		"failure": len(failed),
	}

	if len(failed) > 0 {
		result["errors"] = failures

		if args.AttemptCount < task.MaxAttempt {
			retryArgs := args
			retryArgs.Notices = failed
			retryArgs.AttemptCount = args.AttemptCount + 1

			retryTask, err := BuildScheduledTask(t.TaskID(), retryArgs, time.Now().Add(5*time.Minute), nil, models.ScheduledTaskTypeOneTime, task.MaxAttempt)
			if err == nil {
				db.Create(retryTask)
			} else {
				log.Printf("Failed to create retry task: %v", err)
			}
			return result, nil
		}
		return result, fmt.Errorf("max attempts reached, failed to deliver to %d members", len(failed))
	}

	return result, nil
}

// SendWarningNoticesTask is the singleton instance of SendWarningNoticesTaskDef
var SendWarningNoticesTask = &SendWarningNoticesTaskDef{}

// SendDueRemindersTaskDef emails pharmacy owners about dues that are overdue
// or falling due within the reminder window.
type SendDueRemindersTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SendDueRemindersTaskDef) TaskID() string {
	return "send_due_reminders"
}

// HandleExecution finds unpaid dues inside the window and mails the owners.
func (t *SendDueRemindersTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	windowDays := 7
	if v, ok := task.Arguments["windowDays"].(float64); ok && v > 0 {
		windowDays = int(v)
	}
	cutoff := time.Now().AddDate(0, 0, windowDays)

	var dues []models.Due
	err := db.WithContext(ctx).
		Preload("Pharmacy.Owner").
		Where("balance > 0 AND due_date <= ?", cutoff).
		Find(&dues).Error
	if err != nil {
		return nil, err
	}

	emailService := services.NewEmailService()

	sent := 0
	skipped := 0
	for _, due := range dues {
		owner := due.Pharmacy.Owner
		if owner.Email == "" {
			skipped++
			continue
		}
		err := emailService.SendDueReminder(owner.Email, due.Pharmacy.Name, due.Title, due.Balance, due.DueDate.Format("2006-01-02"))
		if err != nil {
			log.Printf("Failed to send due reminder for due %d: %v", due.ID, err)
			skipped++
			continue
		}
		sent++
	}

	return map[string]interface{}{
		"status":  "success",
		"matched": len(dues),
		"sent":    sent,
		"skipped": skipped,
	}, nil
}

// SendDueRemindersTask is the singleton instance of SendDueRemindersTaskDef
var SendDueRemindersTask = &SendDueRemindersTaskDef{}
