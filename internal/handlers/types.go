package handlers

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"pharmassoc_api/internal/middleware"
	"pharmassoc_api/internal/models"
	"pharmassoc_api/internal/services"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names instead of Go struct fields in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindAndValidate binds the JSON body into req and runs the validation tags,
// translating failures into the field-level ValidationError contract.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return services.NewValidationError("", "malformed request body")
	}
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return services.NewValidationError(fe.Field(), "failed %q validation", fe.Tag())
		}
		return services.NewValidationError("", "invalid request body")
	}
	return nil
}

// ListMeta is the pagination envelope returned alongside list payloads.
type ListMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

func paginationParams(c echo.Context) (page, pageSize int) {
	page = 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	pageSize = 20
	if s, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func buildMeta(page, pageSize int, totalCount int64) ListMeta {
	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	if totalPages == 0 {
		totalPages = 1
	}
	return ListMeta{Page: page, PageSize: pageSize, TotalCount: totalCount, TotalPages: totalPages}
}

// actorID returns the authenticated user id set by the auth middleware.
func actorID(c echo.Context) uint {
	id, _ := c.Get(middleware.CtxUserIDKey).(uint)
	return id
}

func actorRole(c echo.Context) models.UserRole {
	role, _ := c.Get(middleware.CtxUserRoleKey).(models.UserRole)
	return role
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, services.NewValidationError(name, "must be a positive integer id")
	}
	return uint(id), nil
}
