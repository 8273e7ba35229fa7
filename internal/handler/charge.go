package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pixfacil/pixfacil/internal/auth"
	"github.com/pixfacil/pixfacil/internal/logging"
	"github.com/pixfacil/pixfacil/internal/service"
)

type chargeService interface {
	CreateCharge(ctx context.Context, req service.CreateChargeRequest) (*service.ChargeResult, error)
	PollCharge(ctx context.Context, reference string) (*service.ReconcileResult, error)
}

type ChargeHandler struct {
	charges chargeService
}

func NewChargeHandler(charges chargeService) *ChargeHandler {
	return &ChargeHandler{charges: charges}
}

type payerDTO struct {
	Name     string `json:"name"`
	Document string `json:"document"`
}

type createChargeRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Payer       *payerDTO       `json:"payer"`
}

func (r createChargeRequest) Validate() []FieldError {
	var errs []FieldError
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type chargeDTO struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Reference     string    `json:"reference"`
	Status        string    `json:"status"`
	Amount        string    `json:"amount"`
	QRCode        string    `json:"qr_code"`
	PaymentCode   string    `json:"payment_code"`
}

func (h *ChargeHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	accountID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	svcReq := service.CreateChargeRequest{
		AccountID:   accountID,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.Payer != nil {
		svcReq.Payer = &service.PayerInfo{
			Name:     req.Payer.Name,
			Document: req.Payer.Document,
		}
	}

	charge, err := h.charges.CreateCharge(r.Context(), svcReq)
	if err != nil {
		log.Warn("charge creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, chargeDTO{
		TransactionID: charge.TransactionID,
		Reference:     charge.Reference,
		Status:        charge.Status,
		Amount:        charge.Amount.StringFixed(2),
		QRCode:        charge.QRCode,
		PaymentCode:   charge.PaymentCode,
	})
}

type chargeStatusDTO struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Paid      bool   `json:"paid"`
}

func (h *ChargeHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	reference := r.PathValue("reference")
	if reference == "" {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	res, err := h.charges.PollCharge(r.Context(), reference)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, chargeStatusDTO{
		Reference: reference,
		Status:    res.Status,
		Paid:      res.Paid,
	})
}
