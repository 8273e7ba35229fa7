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

type withdrawalService interface {
	Withdraw(ctx context.Context, req service.WithdrawRequest) (*service.Withdrawal, error)
}

type WithdrawalHandler struct {
	withdrawals withdrawalService
}

func NewWithdrawalHandler(withdrawals withdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

type withdrawRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Key         string          `json:"key"`
	KeyType     string          `json:"key_type"`
	Description string          `json:"description"`
}

func (r withdrawRequest) Validate() []FieldError {
	var errs []FieldError
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if r.Key == "" {
		errs = append(errs, FieldError{Field: "key", Message: "required"})
	}
	if r.KeyType == "" {
		errs = append(errs, FieldError{Field: "key_type", Message: "required"})
	}
	return errs
}

type withdrawalDTO struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Amount        string    `json:"amount"`
	Key           string    `json:"key"`
	KeyType       string    `json:"key_type"`
	Balance       string    `json:"balance"`
}

func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	accountID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	withdrawal, err := h.withdrawals.Withdraw(r.Context(), service.WithdrawRequest{
		AccountID:      accountID,
		Amount:         req.Amount,
		DestinationKey: req.Key,
		KeyType:        req.KeyType,
		Description:    req.Description,
	})
	if err != nil {
		log.Warn("withdrawal failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, withdrawalDTO{
		TransactionID: withdrawal.TransactionID,
		Amount:        withdrawal.Amount.StringFixed(2),
		Key:           withdrawal.DestinationKey,
		KeyType:       withdrawal.KeyType,
		Balance:       withdrawal.Balance.StringFixed(2),
	})
}
