package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"pharmassoc_api/internal/models"
	"pharmassoc_api/internal/services"
)

// PaymentHandler reviews payment submissions and receives gateway callbacks.
type PaymentHandler struct {
	db       *gorm.DB
	ledger   *services.LedgerService
	payments *services.PaymentService
}

func NewPaymentHandler(db *gorm.DB, ledger *services.LedgerService, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{db: db, ledger: ledger, payments: payments}
}

type rejectPaymentRequest struct {
	RejectionReason string `json:"rejectionReason" validate:"required"`
}

// HandleListSubmissions lists payment submissions for review.
func (h *PaymentHandler) HandleListSubmissions(c echo.Context) error {
	page, pageSize := paginationParams(c)

	query := h.db.WithContext(c.Request().Context()).Model(&models.PaymentSubmission{})
	if v := c.QueryParam("status"); v != "" {
		query = query.Where("status = ?", v)
	}
	if v := c.QueryParam("dueId"); v != "" {
		query = query.Where("due_id = ?", v)
	}
	if v := c.QueryParam("pharmacyId"); v != "" {
		query = query.Where("pharmacy_id = ?", v)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var submissions []models.PaymentSubmission
	err := query.Preload("Due").Preload("Pharmacy").
		Order("submitted_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&submissions).Error
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"submissions": submissions,
		"meta":        buildMeta(page, pageSize, total),
	})
}

// HandleApprovePayment approves a pending submission and credits the due.
func (h *PaymentHandler) HandleApprovePayment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	submission, err := h.ledger.ApprovePayment(c.Request().Context(), id, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, submission)
}

// HandleRejectPayment rejects a pending submission with a mandatory reason.
func (h *PaymentHandler) HandleRejectPayment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req rejectPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	submission, err := h.ledger.RejectPayment(c.Request().Context(), id, actorID(c), req.RejectionReason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, submission)
}

// HandleMidtransCallback receives gateway notifications. The gateway expects
// a 200 on receipt; signature failures are logged and acknowledged so the
// gateway stops retrying a payload we will never accept.
func (h *PaymentHandler) HandleMidtransCallback(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable callback body")
	}
	if !json.Valid(body) {
		return echo.NewHTTPError(http.StatusBadRequest, "callback body is not JSON")
	}

	if err := h.payments.HandleCallback(c.Request().Context(), body); err != nil {
		c.Logger().Errorf("midtrans callback rejected: %v", err)
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
