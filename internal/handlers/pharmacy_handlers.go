package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"pharmassoc_api/internal/models"
	"pharmassoc_api/internal/services"
)

// PharmacyHandler manages pharmacy registrations.
type PharmacyHandler struct {
	db *gorm.DB
}

func NewPharmacyHandler(db *gorm.DB) *PharmacyHandler {
	return &PharmacyHandler{db: db}
}

type createPharmacyRequest struct {
	Name               string `json:"name" validate:"required"`
	RegistrationNumber string `json:"registrationNumber" validate:"required"`
	OwnerUserID        uint   `json:"ownerUserId" validate:"required"`
	Address            string `json:"address"`
	State              string `json:"state" validate:"required"`
	LGA                string `json:"lga"`
}

type updatePharmacyRequest struct {
	Name               *string `json:"name"`
	Address            *string `json:"address"`
	State              *string `json:"state"`
	LGA                *string `json:"lga"`
	RegistrationStatus *string `json:"registrationStatus" validate:"omitempty,oneof=pending approved suspended"`
}

// HandleListPharmacies lists pharmacies filtered by the same criteria bulk
// assignment targets: status, state, LGA and registration year.
func (h *PharmacyHandler) HandleListPharmacies(c echo.Context) error {
	page, pageSize := paginationParams(c)

	query := h.db.WithContext(c.Request().Context()).Model(&models.Pharmacy{})
	if status := c.QueryParam("registrationStatus"); status != "" {
		query = query.Where("registration_status = ?", status)
	}
	if state := c.QueryParam("state"); state != "" {
		query = query.Where("state = ?", state)
	}
	if lga := c.QueryParam("lga"); lga != "" {
		query = query.Where("lga = ?", lga)
	}
	if yearStr := c.QueryParam("registeredYear"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return services.NewValidationError("registeredYear", "must be a year")
		}
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		query = query.Where("registered_at >= ? AND registered_at < ?", start, start.AddDate(1, 0, 0))
	}
	if ownerStr := c.QueryParam("ownerUserId"); ownerStr != "" {
		query = query.Where("owner_user_id = ?", ownerStr)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var pharmacies []models.Pharmacy
	err := query.Preload("Owner").
		Order("name asc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&pharmacies).Error
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"pharmacies": pharmacies,
		"meta":       buildMeta(page, pageSize, total),
	})
}

// HandleGetPharmacy returns one pharmacy with its owner and dues.
func (h *PharmacyHandler) HandleGetPharmacy(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var pharmacy models.Pharmacy
	err = h.db.WithContext(c.Request().Context()).
		Preload("Owner").
		Preload("Dues", func(db *gorm.DB) *gorm.DB {
			return db.Order("due_date desc")
		}).
		First(&pharmacy, id).Error
	if err != nil {
		return services.NewNotFoundError("pharmacy", id)
	}
	return c.JSON(http.StatusOK, pharmacy)
}

// HandleCreatePharmacy registers a pharmacy under an existing member.
func (h *PharmacyHandler) HandleCreatePharmacy(c echo.Context) error {
	var req createPharmacyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var owner models.User
	if err := h.db.WithContext(ctx).First(&owner, req.OwnerUserID).Error; err != nil {
		return services.NewNotFoundError("user", req.OwnerUserID)
	}

	var existing models.Pharmacy
	err := h.db.WithContext(ctx).
		Where("registration_number = ?", req.RegistrationNumber).
		First(&existing).Error
	if err == nil {
		return services.NewConflictError("registration number %s is already taken", req.RegistrationNumber)
	}

	pharmacy := models.Pharmacy{
		Name:               req.Name,
		RegistrationNumber: req.RegistrationNumber,
		OwnerUserID:        req.OwnerUserID,
		Address:            req.Address,
		State:              req.State,
		LGA:                req.LGA,
		RegistrationStatus: models.RegistrationPending,
		RegisteredAt:       time.Now(),
	}
	if err := h.db.WithContext(ctx).Create(&pharmacy).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pharmacy)
}

// HandleUpdatePharmacy patches pharmacy details and registration status.
func (h *PharmacyHandler) HandleUpdatePharmacy(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updatePharmacyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var pharmacy models.Pharmacy
	if err := h.db.WithContext(ctx).First(&pharmacy, id).Error; err != nil {
		return services.NewNotFoundError("pharmacy", id)
	}

	if req.Name != nil {
		pharmacy.Name = *req.Name
	}
	if req.Address != nil {
		pharmacy.Address = *req.Address
	}
	if req.State != nil {
		pharmacy.State = *req.State
	}
	if req.LGA != nil {
		pharmacy.LGA = *req.LGA
	}
	if req.RegistrationStatus != nil {
		pharmacy.RegistrationStatus = models.RegistrationStatus(*req.RegistrationStatus)
	}

	if err := h.db.WithContext(ctx).Save(&pharmacy).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pharmacy)
}
