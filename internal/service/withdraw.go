package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pixfacil/pixfacil/internal/domain"
	"github.com/pixfacil/pixfacil/internal/logging"
	"github.com/pixfacil/pixfacil/internal/repository"
)

type withdrawUserRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.User, error)
}

type withdrawTxnRepo interface {
	Create(ctx context.Context, tx *sql.Tx, txn *domain.Transaction) error
	TotalsTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (*repository.LedgerTotals, error)
}

// WithdrawalService settles withdrawals locally: the balance check and the
// ledger append run in one store transaction, with the account owner's row
// locked, so two concurrent withdrawals cannot both pass the check against
// the same stale balance.
type WithdrawalService struct {
	db           *sql.DB
	users        withdrawUserRepo
	transactions withdrawTxnRepo
	fee          decimal.Decimal
}

func NewWithdrawalService(db *sql.DB, users withdrawUserRepo, transactions withdrawTxnRepo, fee decimal.Decimal) *WithdrawalService {
	return &WithdrawalService{
		db:           db,
		users:        users,
		transactions: transactions,
		fee:          fee,
	}
}

type WithdrawRequest struct {
	AccountID      uuid.UUID
	Amount         decimal.Decimal
	DestinationKey string
	KeyType        string
	Description    string
}

type Withdrawal struct {
	TransactionID  uuid.UUID
	Amount         decimal.Decimal
	DestinationKey string
	KeyType        string
	Balance        decimal.Decimal
}

func (s *WithdrawalService) Withdraw(ctx context.Context, req WithdrawRequest) (*Withdrawal, error) {
	log := logging.FromContext(ctx)

	if err := validateWithdrawal(req); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	amount := req.Amount.Round(2)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.users.GetForUpdate(ctx, tx, req.AccountID); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	totals, err := s.transactions.TotalsTx(ctx, tx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	balance := balanceFromTotals(totals, s.fee)

	if amount.GreaterThan(balance.Available) {
		return nil, fmt.Errorf("Withdraw: %w", &domain.InsufficientBalanceError{
			Available: balance.Available,
			Requested: amount,
		})
	}

	txn := s.buildWithdrawalTransaction(req, amount)
	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Withdraw: commit: %w", err)
	}

	remaining := balance.Available.Sub(amount).Round(2)

	log.Info("withdrawal settled",
		"transaction_id", txn.ID,
		"account_id", req.AccountID,
		"amount", amount,
		"remaining_balance", remaining,
	)

	return &Withdrawal{
		TransactionID:  txn.ID,
		Amount:         amount,
		DestinationKey: req.DestinationKey,
		KeyType:        req.KeyType,
		Balance:        remaining,
	}, nil
}

func validateWithdrawal(req WithdrawRequest) error {
	if !req.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if req.DestinationKey == "" || req.KeyType == "" {
		return domain.ErrMissingDestination
	}
	return nil
}

func (s *WithdrawalService) buildWithdrawalTransaction(req WithdrawRequest, amount decimal.Decimal) *domain.Transaction {
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("PIX withdrawal to %s key %s", req.KeyType, req.DestinationKey)
	}

	return &domain.Transaction{
		ID:          uuid.New(),
		UserID:      req.AccountID,
		Direction:   domain.DirectionSent,
		Amount:      amount,
		Description: &description,
		Status:      domain.TransactionStatusCompleted,
		CreatedAt:   time.Now().UTC(),
	}
}
