package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pharmassoc_api/internal/models"
)

// systemActor marks ledger entries written by gateway callbacks rather than
// a human reviewer.
const systemActor uint = 0

// PaymentService handles the optional online payment channel: it opens
// gateway sessions for a due's outstanding balance and converts confirmed
// gateway notifications into approved payment submissions through the same
// ledger path manual reviews use.
type PaymentService struct {
	db       *gorm.DB
	ledger   *LedgerService
	midtrans *MidtransService
}

func NewPaymentService(db *gorm.DB, ledger *LedgerService, midtrans *MidtransService) *PaymentService {
	return &PaymentService{db: db, ledger: ledger, midtrans: midtrans}
}

// InitiatePaymentResult holds the outcome of an initiation attempt.
type InitiatePaymentResult struct {
	OrderID     string `json:"orderId"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirectUrl"`
	IsExisting  bool   `json:"isExisting"`
}

// InitiateOnlinePayment starts or resumes a gateway session covering the
// due's current balance.
func (s *PaymentService) InitiateOnlinePayment(ctx context.Context, dueID, actor uint, forceNew bool) (*InitiatePaymentResult, error) {
	due, err := s.ledger.RefreshDue(ctx, dueID)
	if err != nil {
		return nil, err
	}
	if due.Balance <= 0 {
		return nil, NewStateError("due %d is already settled", due.ID)
	}

	existing, err := s.activeSession(ctx, due.ID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		statusResp, err := s.midtrans.CheckTransaction(existing.OrderID)
		if err == nil {
			switch statusResp.TransactionStatus {
			case "settlement", "capture":
				return nil, NewStateError("order %s has already been paid, awaiting confirmation", existing.OrderID)
			case "deny", "expire", "cancel", "failure":
				if err := s.deactivateSession(ctx, existing); err != nil {
					return nil, err
				}
			default: // still pending at the gateway
				if !forceNew {
					var resp struct {
						Token       string `json:"token"`
						RedirectURL string `json:"redirect_url"`
					}
					_ = json.Unmarshal(existing.ResponseMetadata, &resp)
					return &InitiatePaymentResult{
						OrderID:     existing.OrderID,
						Token:       resp.Token,
						RedirectURL: resp.RedirectURL,
						IsExisting:  true,
					}, nil
				}
				if err := s.midtrans.CancelTransaction(existing.OrderID); err != nil {
					return nil, err
				}
				if err := s.deactivateSession(ctx, existing); err != nil {
					return nil, err
				}
			}
		}
	}

	orderID := fmt.Sprintf("DUE-%d-%s", due.ID, uuid.New().String()[:8])
	amount := int64(math.Round(due.Balance))

	resp, err := s.midtrans.CreateTransaction(orderID, amount)
	if err != nil {
		return nil, err
	}

	respMeta, _ := json.Marshal(map[string]string{
		"token":        resp.Token,
		"redirect_url": resp.RedirectURL,
	})
	reqMeta, _ := json.Marshal(map[string]interface{}{
		"dueId":   due.ID,
		"balance": due.Balance,
	})

	session := models.PaymentSession{
		DueID:            due.ID,
		PharmacyID:       due.PharmacyID,
		InitiatedBy:      actor,
		Gateway:          models.PaymentGatewayMidtrans,
		OrderID:          orderID,
		Amount:           due.Balance,
		IsActive:         true,
		RequestMetadata:  reqMeta,
		ResponseMetadata: respMeta,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}

	return &InitiatePaymentResult{
		OrderID:     orderID,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// CallbackPayload is the subset of a gateway notification the handler acts
// on. The full payload is stored raw for audit.
type CallbackPayload struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
}

// HandleCallback verifies and applies one gateway notification. Confirmed
// payments become an auto-approved PaymentSubmission; replayed notifications
// for an already settled session are acknowledged without a second credit.
func (s *PaymentService) HandleCallback(ctx context.Context, raw json.RawMessage) error {
	var payload CallbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return NewValidationError("", "malformed notification payload")
	}

	callback := models.PaymentCallback{
		Gateway:  models.PaymentGatewayMidtrans,
		OrderID:  payload.OrderID,
		Metadata: raw,
	}
	if err := s.db.WithContext(ctx).Create(&callback).Error; err != nil {
		return err
	}

	if !s.midtrans.VerifySignature(payload.OrderID, payload.StatusCode, payload.GrossAmount, payload.SignatureKey) {
		return NewValidationError("signature_key", "notification signature mismatch")
	}

	var session models.PaymentSession
	err := s.db.WithContext(ctx).Where("order_id = ?", payload.OrderID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFoundError("payment session", 0)
		}
		return err
	}

	switch payload.TransactionStatus {
	case "settlement", "capture":
		if !session.IsActive {
			// Replayed notification, already settled
			return nil
		}
		return s.settleSession(ctx, &session, payload)
	case "deny", "expire", "cancel", "failure":
		return s.deactivateSession(ctx, &session)
	default:
		// pending and intermediate states carry no ledger effect
		return nil
	}
}

func (s *PaymentService) settleSession(ctx context.Context, session *models.PaymentSession, payload CallbackPayload) error {
	submission, err := s.ledger.SubmitPayment(ctx, session.DueID, SubmitPaymentInput{
		Amount:           session.Amount,
		PaymentMethod:    models.MethodMobilePayment,
		PaymentGateway:   models.PaymentGatewayMidtrans,
		PaymentReference: payload.TransactionID,
		ReceiptURL:       fmt.Sprintf("midtrans://orders/%s", session.OrderID),
		SubmittedBy:      session.InitiatedBy,
	})
	if err != nil {
		return err
	}

	if _, err := s.ledger.ApprovePayment(ctx, submission.ID, systemActor); err != nil {
		return err
	}
	return s.deactivateSession(ctx, session)
}

func (s *PaymentService) activeSession(ctx context.Context, dueID uint) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := s.db.WithContext(ctx).
		Where("due_id = ? AND is_active = ?", dueID, true).
		Order("created_at desc").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s *PaymentService) deactivateSession(ctx context.Context, session *models.PaymentSession) error {
	session.IsActive = false
	session.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Model(session).Update("is_active", false).Error
}
