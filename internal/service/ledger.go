package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pixfacil/pixfacil/internal/domain"
	"github.com/pixfacil/pixfacil/internal/repository"
)

type ledgerRepo interface {
	Totals(ctx context.Context, userID uuid.UUID) (*repository.LedgerTotals, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error)
	ExpireStale(ctx context.Context, userID uuid.UUID, cutoff time.Time) (int64, error)
}

// Ledger derives account balances from the transaction log. No balance is
// ever stored; every read recomputes from the current log state.
type Ledger struct {
	transactions ledgerRepo
	fee          decimal.Decimal
	chargeTTL    time.Duration
}

func NewLedger(transactions ledgerRepo, fee decimal.Decimal, chargeTTL time.Duration) *Ledger {
	return &Ledger{
		transactions: transactions,
		fee:          fee,
		chargeTTL:    chargeTTL,
	}
}

// ComputeBalance aggregates the account's log in one consistent read. An
// account with no transactions yields an all-zero balance. Stale pending
// charges are expired first so PendingCount only counts collectible charges.
func (l *Ledger) ComputeBalance(ctx context.Context, accountID uuid.UUID) (*domain.Balance, error) {
	if err := l.expireStale(ctx, accountID); err != nil {
		return nil, fmt.Errorf("ComputeBalance: %w", err)
	}

	totals, err := l.transactions.Totals(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ComputeBalance: %w", err)
	}
	return balanceFromTotals(totals, l.fee), nil
}

// ListTransactions returns the account's log newest first. Pending charges
// past the expiry window are flipped to expired before the read, so the
// listing never shows a charge as collectible after its provider window
// closed.
func (l *Ledger) ListTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error) {
	if err := l.expireStale(ctx, accountID); err != nil {
		return nil, 0, fmt.Errorf("ListTransactions: %w", err)
	}

	txns, total, err := l.transactions.ListByUser(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListTransactions: %w", err)
	}
	return txns, total, nil
}

func (l *Ledger) expireStale(ctx context.Context, accountID uuid.UUID) error {
	if l.chargeTTL <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-l.chargeTTL)
	_, err := l.transactions.ExpireStale(ctx, accountID, cutoff)
	return err
}

// balanceFromTotals applies the fee schedule to raw ledger sums. Arithmetic
// stays exact until the final fields; rounding to currency precision happens
// once, here.
func balanceFromTotals(t *repository.LedgerTotals, fee decimal.Decimal) *domain.Balance {
	totalFees := fee.Mul(decimal.NewFromInt(t.FeeCount))
	available := t.Received.Sub(t.Sent).Sub(totalFees)

	return &domain.Balance{
		Available:     available.Round(2),
		TotalReceived: t.Received.Round(2),
		TotalSent:     t.Sent.Round(2),
		TotalFees:     totalFees.Round(2),
		FeeCount:      t.FeeCount,
		PendingCount:  t.PendingCount,
	}
}
