package models

import (
	"testing"
	"time"
)

func TestScheduledTaskNextDue(t *testing.T) {
	t.Run("onetime keeps its due", func(t *testing.T) {
		due := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
		task := ScheduledTask{TaskType: ScheduledTaskTypeOneTime, Due: due}
		if got := task.NextDue(); !got.Equal(due) {
			t.Errorf("NextDue() = %s, want %s", got, due)
		}
	})

	t.Run("recurring without a rule falls back to its due", func(t *testing.T) {
		due := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
		task := ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due}
		if got := task.NextDue(); !got.Equal(due) {
			t.Errorf("NextDue() = %s, want %s", got, due)
		}
	})

	t.Run("recurring advances past an overdue anchor", func(t *testing.T) {
		rule := "FREQ=DAILY"
		due := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
		task := ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &rule}

		got := task.NextDue()
		if !got.After(due) {
			t.Errorf("NextDue() = %s, want a time after the overdue anchor %s", got, due)
		}
	})
}
