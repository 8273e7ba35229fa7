package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pixfacil/pixfacil/internal/auth"
	"github.com/pixfacil/pixfacil/internal/domain"
)

type ledgerService interface {
	ComputeBalance(ctx context.Context, accountID uuid.UUID) (*domain.Balance, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error)
}

type TransactionHandler struct {
	ledger ledgerService
}

func NewTransactionHandler(ledger ledgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

type balanceDTO struct {
	Available     string `json:"available"`
	TotalReceived string `json:"total_received"`
	TotalSent     string `json:"total_sent"`
	TotalFees     string `json:"total_fees"`
	PendingCount  int64  `json:"pending_count"`
}

type transactionDTO struct {
	ID                   uuid.UUID `json:"id"`
	Direction            string    `json:"direction"`
	Amount               string    `json:"amount"`
	CounterpartyName     *string   `json:"counterparty_name,omitempty"`
	CounterpartyDocument *string   `json:"counterparty_document,omitempty"`
	ProviderReference    *string   `json:"provider_reference,omitempty"`
	Description          *string   `json:"description,omitempty"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
}

type transactionListResponse struct {
	Transactions []transactionDTO `json:"transactions"`
	Total        int              `json:"total"`
	Limit        int              `json:"limit"`
	Offset       int              `json:"offset"`
}

func toTransactionDTO(txn domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:                   txn.ID,
		Direction:            string(txn.Direction),
		Amount:               txn.Amount.StringFixed(2),
		CounterpartyName:     txn.CounterpartyName,
		CounterpartyDocument: txn.CounterpartyDocument,
		ProviderReference:    txn.ProviderReference,
		Description:          txn.Description,
		Status:               string(txn.Status),
		CreatedAt:            txn.CreatedAt,
	}
}

func (h *TransactionHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	balance, err := h.ledger.ComputeBalance(r.Context(), accountID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, balanceDTO{
		Available:     balance.Available.StringFixed(2),
		TotalReceived: balance.TotalReceived.StringFixed(2),
		TotalSent:     balance.TotalSent.StringFixed(2),
		TotalFees:     balance.TotalFees.StringFixed(2),
		PendingCount:  balance.PendingCount,
	})
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	limit, offset := paginationParams(r)

	txns, total, err := h.ledger.ListTransactions(r.Context(), accountID, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, 0, len(txns))
	for _, txn := range txns {
		dtos = append(dtos, toTransactionDTO(txn))
	}

	RespondSuccess(w, http.StatusOK, transactionListResponse{
		Transactions: dtos,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	})
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
