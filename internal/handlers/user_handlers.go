package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"pharmassoc_api/internal/models"
	"pharmassoc_api/internal/services"
)

// UserHandler manages association member accounts.
type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

type createUserRequest struct {
	Name       string  `json:"name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      string  `json:"phone"`
	Role       string  `json:"role" validate:"omitempty,oneof=admin member"`
	AnnualDues float64 `json:"annualDues" validate:"gte=0"`
}

type updateUserRequest struct {
	Name       *string  `json:"name"`
	Phone      *string  `json:"phone"`
	Role       *string  `json:"role" validate:"omitempty,oneof=admin member"`
	AnnualDues *float64 `json:"annualDues" validate:"omitempty,gte=0"`
}

// HandleListUsers lists members with optional role filtering.
func (h *UserHandler) HandleListUsers(c echo.Context) error {
	page, pageSize := paginationParams(c)

	query := h.db.WithContext(c.Request().Context()).Model(&models.User{})
	if role := c.QueryParam("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	err := query.Order("name asc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"users": users,
		"meta":  buildMeta(page, pageSize, total),
	})
}

// HandleGetUser returns one member with their pharmacies.
func (h *UserHandler) HandleGetUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var user models.User
	err = h.db.WithContext(c.Request().Context()).
		Preload("Pharmacies").
		First(&user, id).Error
	if err != nil {
		return services.NewNotFoundError("user", id)
	}
	return c.JSON(http.StatusOK, user)
}

// HandleCreateUser registers a new member account.
func (h *UserHandler) HandleCreateUser(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	role := models.RoleMember
	if req.Role != "" {
		role = models.UserRole(req.Role)
	}

	user := models.User{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Role:       role,
		AnnualDues: req.AnnualDues,
	}

	ctx := c.Request().Context()
	var existing models.User
	if err := h.db.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return services.NewConflictError("a member with email %s already exists", req.Email)
	}

	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// HandleUpdateUser patches mutable member fields.
func (h *UserHandler) HandleUpdateUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return services.NewNotFoundError("user", id)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil {
		user.Role = models.UserRole(*req.Role)
	}
	if req.AnnualDues != nil {
		user.AnnualDues = *req.AnnualDues
	}

	if err := h.db.WithContext(ctx).Save(&user).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
