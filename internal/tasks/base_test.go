package tasks

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"pharmassoc_api/internal/models"
)

func TestBuildScheduledTaskRoundTrip(t *testing.T) {
	due := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	args := SendWarningNoticesArgs{
		Notices: []WarningNotice{
			{Email: "owner@example.com", Name: "Ada", Year: 2024, AttendanceRate: 0.25, Penalty: 12500},
		},
		AttemptCount: 1,
	}

	task, err := BuildScheduledTask("send_warning_notices", args, due, nil, models.ScheduledTaskTypeOneTime, 3)
	if err != nil {
		t.Fatalf("BuildScheduledTask() error = %v", err)
	}

	if task.TaskName != "send_warning_notices" {
		t.Errorf("TaskName = %q", task.TaskName)
	}
	if task.Status != models.ScheduledTaskStatusActive {
		t.Errorf("Status = %s, want active", task.Status)
	}
	if !task.Due.Equal(due) {
		t.Errorf("Due = %s, want %s", task.Due, due)
	}

	var decoded SendWarningNoticesArgs
	if err := decodeArgs(*task, &decoded); err != nil {
		t.Fatalf("decodeArgs() error = %v", err)
	}
	if decoded.AttemptCount != 1 {
		t.Errorf("AttemptCount = %d, want 1", decoded.AttemptCount)
	}
	if len(decoded.Notices) != 1 {
		t.Fatalf("Notices = %d entries, want 1", len(decoded.Notices))
	}
	if decoded.Notices[0].Email != "owner@example.com" || decoded.Notices[0].Penalty != 12500 {
		t.Errorf("decoded notice = %+v", decoded.Notices[0])
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := &Registry{handlers: map[string]TaskHandler{}}

	if _, ok := reg.Get("missing"); ok {
		t.Error("Get() found a handler that was never registered")
	}

	reg.Register("noop", func(_ context.Context, _ *gorm.DB, _ models.ScheduledTask) (map[string]interface{}, error) {
		return nil, nil
	})
	if _, ok := reg.Get("noop"); !ok {
		t.Error("Get() did not find the registered handler")
	}
}
