package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"pharmassoc_api/internal/services"
)

// CustomErrorHandler maps domain errors from the ledger and evaluator
// services onto the API's JSON error contract. Nothing below the handler
// layer swallows errors; everything surfaces here.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := map[string]interface{}{"error": "internal server error"}

	var (
		validationErr *services.ValidationError
		conflictErr   *services.ConflictError
		notFoundErr   *services.NotFoundError
		stateErr      *services.StateError
		httpErr       *echo.HTTPError
	)

	switch {
	case errors.As(err, &validationErr):
		code = http.StatusBadRequest
		body["error"] = validationErr.Message
		if validationErr.Field != "" {
			body["field"] = validationErr.Field
		}
	case errors.As(err, &conflictErr):
		code = http.StatusConflict
		body["error"] = conflictErr.Message
	case errors.As(err, &notFoundErr):
		code = http.StatusNotFound
		body["error"] = notFoundErr.Error()
	case errors.As(err, &stateErr):
		code = http.StatusUnprocessableEntity
		body["error"] = stateErr.Message
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			body["error"] = msg
		} else {
			body["error"] = http.StatusText(code)
		}
	default:
		c.Logger().Error(err)
	}

	if err := c.JSON(code, body); err != nil {
		c.Logger().Error(err)
	}
}
