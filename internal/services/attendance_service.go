package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"pharmassoc_api/internal/models"
)

// TaskSendWarningNotices is the scheduled-task name the worker registers for
// attendance warning delivery.
const TaskSendWarningNotices = "send_warning_notices"

// attendanceThreshold is the minimum meeting attendance rate; members below
// it are penalized half their annual dues.
const attendanceThreshold = 0.5

// AttendanceService evaluates member attendance over a year's meeting events
// and applies due-reduction penalties. Each year is processed at most once:
// a unique AttendancePenaltyRun row is the durable guard and a Redis lock
// keeps two concurrent invocations from racing past the existence check.
type AttendanceService struct {
	db    *gorm.DB
	cache *RedisCache
}

func NewAttendanceService(db *gorm.DB, cache *RedisCache) *AttendanceService {
	return &AttendanceService{db: db, cache: cache}
}

// EvaluateYear runs the penalty calculation for one year and returns the
// persisted run with its per-member report.
func (s *AttendanceService) EvaluateYear(ctx context.Context, year int, actor uint) (*models.AttendancePenaltyRun, error) {
	if year < 2000 || year > time.Now().Year() {
		return nil, NewValidationError("year", "year %d is not evaluable", year)
	}

	lockKey := fmt.Sprintf("attendance:penalty-run:%d", year)
	acquired, err := s.cache.AcquireLock(ctx, lockKey, 10*time.Minute)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, NewConflictError("penalty calculation for %d is already in progress", year)
	}
	defer func() {
		if err := s.cache.ReleaseLock(ctx, lockKey); err != nil {
			log.Printf("failed to release penalty-run lock for %d: %v", year, err)
		}
	}()

	var existing models.AttendancePenaltyRun
	err = s.db.WithContext(ctx).Where("year = ?", year).First(&existing).Error
	if err == nil {
		return nil, NewConflictError("attendance penalties for %d were already calculated on %s", year, existing.RanAt.Format("2006-01-02"))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	meetingIDs, err := s.meetingEventIDs(ctx, year)
	if err != nil {
		return nil, err
	}
	if len(meetingIDs) == 0 {
		// Rate would be 0/0; the year is not evaluable and nothing is written.
		return nil, NewStateError("no meeting events recorded for %d, nothing to evaluate", year)
	}

	var members []models.User
	if err := s.db.WithContext(ctx).Where("role = ?", models.RoleMember).Order("id").Find(&members).Error; err != nil {
		return nil, err
	}

	presentCounts, err := s.presentCounts(ctx, meetingIDs)
	if err != nil {
		return nil, err
	}

	run := &models.AttendancePenaltyRun{
		Year:             year,
		RanBy:            actor,
		RanAt:            time.Now(),
		TotalMeetings:    len(meetingIDs),
		MembersEvaluated: len(members),
	}

	var warned []models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The unique index on year turns a concurrent duplicate run into a
		// constraint error here instead of double-applied penalties.
		if err := tx.Create(run).Error; err != nil {
			return err
		}

		for _, member := range members {
			present := presentCounts[member.ID]
			rate := attendanceRate(present, len(meetingIDs))
			penalty := attendancePenalty(rate, member.AnnualDues)

			report := models.AttendancePenaltyReport{
				RunID:          run.ID,
				UserID:         member.ID,
				Name:           member.Name,
				PresentCount:   present,
				AttendanceRate: rate,
				Penalty:        penalty,
			}

			if penalty > 0 {
				report.Warned = true
				// Atomic increment: never read-modify-write PendingDues.
				err := tx.Model(&models.User{}).Where("id = ?", member.ID).
					Updates(map[string]interface{}{
						"pending_dues":     gorm.Expr("pending_dues + ?", penalty),
						"last_warned_year": year,
					}).Error
				if err != nil {
					return err
				}
				run.MembersPenalized++
				warned = append(warned, member)
			}

			if err := tx.Create(&report).Error; err != nil {
				return err
			}
			run.Reports = append(run.Reports, report)
		}

		return tx.Model(run).Update("members_penalized", run.MembersPenalized).Error
	})
	if err != nil {
		return nil, err
	}

	s.queueWarningNotices(ctx, year, run, warned)
	return run, nil
}

// Report returns the persisted run for a year, or a NotFoundError when the
// year has not been evaluated.
func (s *AttendanceService) Report(ctx context.Context, year int) (*models.AttendancePenaltyRun, error) {
	var run models.AttendancePenaltyRun
	err := s.db.WithContext(ctx).Preload("Reports").Where("year = ?", year).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "attendance penalty run", ID: uint(year)}
		}
		return nil, err
	}
	return &run, nil
}

func (s *AttendanceService) meetingEventIDs(ctx context.Context, year int) ([]uint, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("event_type = ? AND status <> ? AND start_date >= ? AND start_date < ?",
			models.EventMeetings, models.EventCancelled, start, end).
		Pluck("id", &ids).Error
	return ids, err
}

func (s *AttendanceService) presentCounts(ctx context.Context, eventIDs []uint) (map[uint]int, error) {
	type row struct {
		UserID uint
		Count  int
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&models.Attendee{}).
		Select("user_id, COUNT(*) AS count").
		Where("event_id IN ? AND status = ?", eventIDs, models.AttendeePresent).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int, len(rows))
	for _, r := range rows {
		counts[r.UserID] = r.Count
	}
	return counts, nil
}

// queueWarningNotices schedules the notification task for warned members.
// Failure to queue is logged, not returned: the penalties are already
// committed and the run report reflects them.
func (s *AttendanceService) queueWarningNotices(ctx context.Context, year int, run *models.AttendancePenaltyRun, warned []models.User) {
	if len(warned) == 0 {
		return
	}

	rates := make(map[uint]models.AttendancePenaltyReport, len(run.Reports))
	for _, r := range run.Reports {
		rates[r.UserID] = r
	}

	notices := make([]interface{}, 0, len(warned))
	for _, member := range warned {
		report := rates[member.ID]
		notices = append(notices, map[string]interface{}{
			"email":          member.Email,
			"name":           member.Name,
			"year":           year,
			"attendanceRate": report.AttendanceRate,
			"penalty":        report.Penalty,
		})
	}

	task := models.ScheduledTask{
		TaskName:   TaskSendWarningNotices,
		Arguments:  map[string]interface{}{"notices": notices},
		Due:        time.Now(),
		Status:     models.ScheduledTaskStatusActive,
		TaskType:   models.ScheduledTaskTypeOneTime,
		MaxAttempt: 3,
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		log.Printf("failed to queue warning notices for %d: %v", year, err)
	}
}

// attendanceRate is presentCount over totalMeetings. Callers must not pass
// totalMeetings == 0; the evaluator refuses such years upstream.
func attendanceRate(present, totalMeetings int) float64 {
	if totalMeetings <= 0 {
		return 0
	}
	return float64(present) / float64(totalMeetings)
}

// attendancePenalty is half the annual dues for members under the threshold,
// zero otherwise (including members with no annual dues configured).
func attendancePenalty(rate, annualDues float64) float64 {
	if rate >= attendanceThreshold {
		return 0
	}
	if annualDues <= 0 {
		return 0
	}
	return annualDues / 2
}
