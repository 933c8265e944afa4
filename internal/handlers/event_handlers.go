package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"pharmassoc_api/internal/models"
	"pharmassoc_api/internal/services"
)

// EventHandler manages events, attendance records and the yearly attendance
// penalty evaluation.
type EventHandler struct {
	db         *gorm.DB
	attendance *services.AttendanceService
}

func NewEventHandler(db *gorm.DB, attendance *services.AttendanceService) *EventHandler {
	return &EventHandler{db: db, attendance: attendance}
}

type createEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	EventType   string `json:"eventType" validate:"required,oneof=meetings conference workshop seminar training social"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate"`
	Location    string `json:"location"`
}

type updateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status" validate:"omitempty,oneof=upcoming ongoing completed cancelled"`
	Location    *string `json:"location"`
}

type registerAttendeeRequest struct {
	UserID uint `json:"userId"`
}

type markAttendanceRequest struct {
	UserID uint   `json:"userId" validate:"required"`
	Status string `json:"status" validate:"required,oneof=registered present absent cancelled"`
}

type evaluateAttendanceRequest struct {
	Year int `json:"year" validate:"required"`
}

// HandleListEvents lists events, optionally filtered by type, status and year.
func (h *EventHandler) HandleListEvents(c echo.Context) error {
	page, pageSize := paginationParams(c)

	query := h.db.WithContext(c.Request().Context()).Model(&models.Event{})
	if v := c.QueryParam("eventType"); v != "" {
		query = query.Where("event_type = ?", v)
	}
	if v := c.QueryParam("status"); v != "" {
		query = query.Where("status = ?", v)
	}
	if v := c.QueryParam("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return services.NewValidationError("year", "must be a year")
		}
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		query = query.Where("start_date >= ? AND start_date < ?", start, start.AddDate(1, 0, 0))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var events []models.Event
	err := query.Order("start_date desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&events).Error
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
		"meta":   buildMeta(page, pageSize, total),
	})
}

// HandleGetEvent returns one event with its attendee roster.
func (h *EventHandler) HandleGetEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var event models.Event
	err = h.db.WithContext(c.Request().Context()).
		Preload("Attendees.User").
		First(&event, id).Error
	if err != nil {
		return services.NewNotFoundError("event", id)
	}
	return c.JSON(http.StatusOK, event)
}

// HandleCreateEvent schedules a new event.
func (h *EventHandler) HandleCreateEvent(c echo.Context) error {
	var req createEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		return services.NewValidationError("startDate", "must be an RFC 3339 timestamp")
	}
	endDate := startDate
	if req.EndDate != "" {
		endDate, err = time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			return services.NewValidationError("endDate", "must be an RFC 3339 timestamp")
		}
		if endDate.Before(startDate) {
			return services.NewValidationError("endDate", "must not be before startDate")
		}
	}

	event := models.Event{
		Title:       req.Title,
		Description: req.Description,
		EventType:   models.EventType(req.EventType),
		Status:      models.EventUpcoming,
		StartDate:   startDate,
		EndDate:     endDate,
		Location:    req.Location,
		CreatedBy:   actorID(c),
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&event).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, event)
}

// HandleUpdateEvent patches event details and lifecycle status.
func (h *EventHandler) HandleUpdateEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var event models.Event
	if err := h.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return services.NewNotFoundError("event", id)
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Status != nil {
		event.Status = models.EventStatus(*req.Status)
	}
	if req.Location != nil {
		event.Location = *req.Location
	}

	if err := h.db.WithContext(ctx).Save(&event).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, event)
}

// HandleRegisterAttendee registers a member for an event. Members register
// themselves; admins may register any member by passing userId.
func (h *EventHandler) HandleRegisterAttendee(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req registerAttendeeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	userID := actorID(c)
	if req.UserID != 0 && req.UserID != userID {
		if actorRole(c) != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "only administrators may register other members")
		}
		userID = req.UserID
	}

	ctx := c.Request().Context()
	var event models.Event
	if err := h.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return services.NewNotFoundError("event", id)
	}
	if event.Status == models.EventCancelled {
		return services.NewStateError("event %d is cancelled", event.ID)
	}

	var existing models.Attendee
	err = h.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", event.ID, userID).
		First(&existing).Error
	if err == nil {
		return services.NewConflictError("user %d is already registered for event %d", userID, event.ID)
	}

	attendee := models.Attendee{
		EventID:      event.ID,
		UserID:       userID,
		Status:       models.AttendeeRegistered,
		RegisteredAt: time.Now(),
	}
	if err := h.db.WithContext(ctx).Create(&attendee).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, attendee)
}

// HandleMarkAttendance sets a member's attendance status for an event.
func (h *EventHandler) HandleMarkAttendance(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req markAttendanceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var attendee models.Attendee
	err = h.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", id, req.UserID).
		First(&attendee).Error
	if err != nil {
		return services.NewNotFoundError("attendee", req.UserID)
	}

	attendee.Status = models.AttendeeStatus(req.Status)
	if err := h.db.WithContext(ctx).Save(&attendee).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, attendee)
}

// HandleExportAttendees downloads the attendee roster as CSV or, with
// ?format=xlsx, as a spreadsheet.
func (h *EventHandler) HandleExportAttendees(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var event models.Event
	if err := h.db.WithContext(ctx).Preload("Attendees.User").First(&event, id).Error; err != nil {
		return services.NewNotFoundError("event", id)
	}

	rows := make([][]string, 0, len(event.Attendees)+1)
	rows = append(rows, []string{"Name", "Email", "Status", "Registered At"})
	for _, a := range event.Attendees {
		rows = append(rows, []string{
			a.User.Name,
			a.User.Email,
			string(a.Status),
			a.RegisteredAt.Format("2006-01-02 15:04"),
		})
	}

	filename := fmt.Sprintf("event-%d-attendees", event.ID)
	if c.QueryParam("format") == "xlsx" {
		return writeXLSX(c, filename, rows)
	}
	return writeCSV(c, filename, rows)
}

func writeCSV(c echo.Context, filename string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func writeXLSX(c echo.Context, filename string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.xlsx"`, filename))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// HandleEvaluateAttendance runs the yearly attendance penalty evaluation.
func (h *EventHandler) HandleEvaluateAttendance(c echo.Context) error {
	var req evaluateAttendanceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	run, err := h.attendance.EvaluateYear(c.Request().Context(), req.Year, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}

// HandleAttendanceReport returns the stored evaluation for a year.
func (h *EventHandler) HandleAttendanceReport(c echo.Context) error {
	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil {
		return services.NewValidationError("year", "must be a year")
	}

	run, err := h.attendance.Report(c.Request().Context(), year)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}
