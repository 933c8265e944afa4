package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"pharmassoc_api/internal/models"
	"pharmassoc_api/internal/services"
)

// DueTypeHandler manages the due type catalog.
type DueTypeHandler struct {
	db *gorm.DB
}

func NewDueTypeHandler(db *gorm.DB) *DueTypeHandler {
	return &DueTypeHandler{db: db}
}

type createDueTypeRequest struct {
	Name            string  `json:"name" validate:"required"`
	Description     string  `json:"description"`
	DefaultAmount   float64 `json:"defaultAmount" validate:"gt=0"`
	IsRecurring     bool    `json:"isRecurring"`
	RecurringPeriod string  `json:"recurringPeriod" validate:"omitempty,oneof=monthly quarterly semi_annual annual"`
}

type updateDueTypeRequest struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	DefaultAmount *float64 `json:"defaultAmount" validate:"omitempty,gt=0"`
	IsActive      *bool    `json:"isActive"`
}

// HandleListDueTypes lists due types, active only unless includeInactive=true.
func (h *DueTypeHandler) HandleListDueTypes(c echo.Context) error {
	query := h.db.WithContext(c.Request().Context()).Model(&models.DueType{})
	if c.QueryParam("includeInactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var dueTypes []models.DueType
	if err := query.Order("name asc").Find(&dueTypes).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"dueTypes": dueTypes})
}

// HandleGetDueType returns one due type.
func (h *DueTypeHandler) HandleGetDueType(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var dueType models.DueType
	if err := h.db.WithContext(c.Request().Context()).First(&dueType, id).Error; err != nil {
		return services.NewNotFoundError("due type", id)
	}
	return c.JSON(http.StatusOK, dueType)
}

// HandleCreateDueType adds a due type to the catalog. Recurring types must
// name a period; non-recurring types must not.
func (h *DueTypeHandler) HandleCreateDueType(c echo.Context) error {
	var req createDueTypeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	dueType := models.DueType{
		Name:          req.Name,
		Description:   req.Description,
		DefaultAmount: req.DefaultAmount,
		IsRecurring:   req.IsRecurring,
		IsActive:      true,
	}

	if req.IsRecurring {
		if req.RecurringPeriod == "" {
			return services.NewValidationError("recurringPeriod", "recurring due types require a recurring period")
		}
		period := models.RecurringPeriod(req.RecurringPeriod)
		dueType.RecurringPeriod = &period
	} else if req.RecurringPeriod != "" {
		return services.NewValidationError("recurringPeriod", "only recurring due types may carry a period")
	}

	if err := h.db.WithContext(c.Request().Context()).Create(&dueType).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dueType)
}

// HandleUpdateDueType patches catalog fields. The recurrence shape is frozen
// after creation so already-instantiated dues keep their schedule.
func (h *DueTypeHandler) HandleUpdateDueType(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateDueTypeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var dueType models.DueType
	if err := h.db.WithContext(ctx).First(&dueType, id).Error; err != nil {
		return services.NewNotFoundError("due type", id)
	}

	if req.Name != nil {
		dueType.Name = *req.Name
	}
	if req.Description != nil {
		dueType.Description = *req.Description
	}
	if req.DefaultAmount != nil {
		dueType.DefaultAmount = *req.DefaultAmount
	}
	if req.IsActive != nil {
		dueType.IsActive = *req.IsActive
	}

	if err := h.db.WithContext(ctx).Save(&dueType).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dueType)
}

// HandleDeleteDueType removes an unreferenced due type. Types already
// referenced by dues are deactivated instead so history keeps resolving.
func (h *DueTypeHandler) HandleDeleteDueType(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var dueType models.DueType
	if err := h.db.WithContext(ctx).First(&dueType, id).Error; err != nil {
		return services.NewNotFoundError("due type", id)
	}

	var refs int64
	if err := h.db.WithContext(ctx).Model(&models.Due{}).Where("due_type_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}

	if refs > 0 {
		if err := h.db.WithContext(ctx).Model(&dueType).Update("is_active", false).Error; err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "deactivated",
			"message": "due type is referenced by existing dues and was deactivated instead of deleted",
		})
	}

	if err := h.db.WithContext(ctx).Delete(&dueType).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}
