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

const analyticsCacheTTL = 5 * time.Minute

// DueHandler exposes the dues ledger: listing, assignment, penalties and
// payment submission.
type DueHandler struct {
	db       *gorm.DB
	cache    *services.RedisCache
	ledger   *services.LedgerService
	assigner *services.AssignmentService
	payments *services.PaymentService
}

func NewDueHandler(db *gorm.DB, cache *services.RedisCache, ledger *services.LedgerService, assigner *services.AssignmentService, payments *services.PaymentService) *DueHandler {
	return &DueHandler{db: db, cache: cache, ledger: ledger, assigner: assigner, payments: payments}
}

type createDueRequest struct {
	PharmacyID  uint     `json:"pharmacyId" validate:"required"`
	DueTypeID   *uint    `json:"dueTypeId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Amount      *float64 `json:"amount" validate:"omitempty,gt=0"`
	DueDate     string   `json:"dueDate" validate:"required"`
}

type bulkAssignRequest struct {
	PharmacyIDs []uint                   `json:"pharmacyIds"`
	Filter      *services.PharmacyFilter `json:"filter"`
	DueTypeID   *uint                    `json:"dueTypeId"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Amount      *float64                 `json:"amount" validate:"omitempty,gt=0"`
	DueDate     string                   `json:"dueDate" validate:"required"`
}

type addPenaltyRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Reason string  `json:"reason" validate:"required"`
}

type submitPaymentRequest struct {
	Amount           float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod    string  `json:"paymentMethod" validate:"required,oneof=bank_transfer cash cheque mobile_payment"`
	PaymentReference string  `json:"paymentReference"`
	ReceiptURL       string  `json:"receiptUrl" validate:"required"`
}

type onlinePaymentRequest struct {
	ForceNew bool `json:"forceNew"`
}

func parseDueDate(value string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, services.NewValidationError("dueDate", "must be a date in YYYY-MM-DD form")
	}
	return parsed, nil
}

// HandleListDues lists dues with ledger filters. Members only see dues of
// pharmacies they own; admins see everything.
func (h *DueHandler) HandleListDues(c echo.Context) error {
	page, pageSize := paginationParams(c)

	query := h.db.WithContext(c.Request().Context()).Model(&models.Due{})
	if actorRole(c) != models.RoleAdmin {
		query = query.Where("pharmacy_id IN (?)",
			h.db.Model(&models.Pharmacy{}).Select("id").Where("owner_user_id = ?", actorID(c)))
	}
	if v := c.QueryParam("pharmacyId"); v != "" {
		query = query.Where("pharmacy_id = ?", v)
	}
	if v := c.QueryParam("dueTypeId"); v != "" {
		query = query.Where("due_type_id = ?", v)
	}
	if v := c.QueryParam("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return services.NewValidationError("year", "must be a year")
		}
		query = query.Where("year = ?", year)
	}
	if v := c.QueryParam("paymentStatus"); v != "" {
		query = query.Where("payment_status = ?", v)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var dues []models.Due
	err := query.Preload("Pharmacy").Preload("DueType").
		Order("due_date desc, id desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&dues).Error
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"dues": dues,
		"meta": buildMeta(page, pageSize, total),
	})
}

// HandleGetDue returns one due with penalties and submissions, its derived
// fields recomputed against the current clock.
func (h *DueHandler) HandleGetDue(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	due, err := h.ledger.RefreshDue(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if err := h.ensureDueAccess(c, due); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, due)
}

// HandleCreateDue assigns a due to a single pharmacy.
func (h *DueHandler) HandleCreateDue(c echo.Context) error {
	var req createDueRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return err
	}

	due, err := h.assigner.AssignIndividual(c.Request().Context(), req.PharmacyID, services.AssignInput{
		DueTypeID:   req.DueTypeID,
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     dueDate,
		AssignedBy:  actorID(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, due)
}

// HandleBulkAssign fans one due out over many pharmacies and reports the
// per-pharmacy outcomes.
func (h *DueHandler) HandleBulkAssign(c echo.Context) error {
	var req bulkAssignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return err
	}

	report, err := h.assigner.BulkAssign(c.Request().Context(), services.BulkAssignInput{
		AssignInput: services.AssignInput{
			DueTypeID:   req.DueTypeID,
			Title:       req.Title,
			Description: req.Description,
			Amount:      req.Amount,
			DueDate:     dueDate,
			AssignedBy:  actorID(c),
		},
		PharmacyIDs: req.PharmacyIDs,
		Filter:      req.Filter,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// HandleAddPenalty appends a penalty to a due.
func (h *DueHandler) HandleAddPenalty(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req addPenaltyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	due, err := h.ledger.AddPenalty(c.Request().Context(), id, req.Amount, req.Reason, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, due)
}

// HandleSubmitPayment records a manual payment claim against a due.
func (h *DueHandler) HandleSubmitPayment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req submitPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	due, err := h.ledger.RefreshDue(ctx, id)
	if err != nil {
		return err
	}
	if err := h.ensureDueAccess(c, due); err != nil {
		return err
	}

	submission, err := h.ledger.SubmitPayment(ctx, id, services.SubmitPaymentInput{
		Amount:           req.Amount,
		PaymentMethod:    models.PaymentMethod(req.PaymentMethod),
		PaymentGateway:   models.PaymentGatewayManual,
		PaymentReference: req.PaymentReference,
		ReceiptURL:       req.ReceiptURL,
		SubmittedBy:      actorID(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, submission)
}

// HandleInitiateOnlinePayment opens or resumes a gateway checkout session
// covering the due's outstanding balance.
func (h *DueHandler) HandleInitiateOnlinePayment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req onlinePaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	due, err := h.ledger.RefreshDue(ctx, id)
	if err != nil {
		return err
	}
	if err := h.ensureDueAccess(c, due); err != nil {
		return err
	}

	result, err := h.payments.InitiateOnlinePayment(ctx, id, actorID(c), req.ForceNew)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// HandleAnalytics aggregates ledger totals, cached briefly since the numbers
// feed a dashboard and tolerate slight staleness.
func (h *DueHandler) HandleAnalytics(c echo.Context) error {
	ctx := c.Request().Context()
	analytics, err := services.GetOrSet(h.cache, ctx, "dues:analytics", analyticsCacheTTL, func() (*services.DuesAnalytics, error) {
		return h.ledger.Analytics(ctx)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, analytics)
}

// ensureDueAccess restricts members to dues of pharmacies they own.
func (h *DueHandler) ensureDueAccess(c echo.Context, due *models.Due) error {
	if actorRole(c) == models.RoleAdmin {
		return nil
	}

	var pharmacy models.Pharmacy
	err := h.db.WithContext(c.Request().Context()).First(&pharmacy, due.PharmacyID).Error
	if err != nil || pharmacy.OwnerUserID != actorID(c) {
		return echo.NewHTTPError(http.StatusForbidden, "due belongs to another member's pharmacy")
	}
	return nil
}
