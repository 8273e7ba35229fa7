package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pixfacil/pixfacil/internal/domain"
)

const transactionColumns = `id, user_id, direction, amount, counterparty_name,
	counterparty_document, provider_reference, description, status, created_at`

// LedgerTotals is the raw aggregate the balance engine derives from. Sums
// come back as exact numerics; rounding happens in the service layer.
type LedgerTotals struct {
	Received     decimal.Decimal
	Sent         decimal.Decimal
	FeeCount     int64
	PendingCount int64
}

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, txn *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, user_id, direction, amount, counterparty_name,
			counterparty_document, provider_reference, description, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		txn.ID, txn.UserID, txn.Direction, txn.Amount, txn.CounterpartyName,
		txn.CounterpartyDocument, txn.ProviderReference, txn.Description, txn.Status, txn.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrDuplicateReference)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByProviderReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE provider_reference = $1`,
		reference,
	)
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByProviderReference: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByProviderReference: %w", err)
	}
	return txn, nil
}

// CompleteByReference transitions pending -> completed. The WHERE clause
// makes the transition conditional, so concurrent confirmations of the same
// charge collapse to a single state change. Returns whether a row moved.
func (r *TransactionRepository) CompleteByReference(ctx context.Context, reference string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET status = $1
		WHERE provider_reference = $2 AND status = $3`,
		domain.TransactionStatusCompleted, reference, domain.TransactionStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("CompleteByReference: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("CompleteByReference: rows affected: %w", err)
	}
	return rows > 0, nil
}

// ExpireByReference transitions pending -> expired for a charge created
// before cutoff. A charge the provider has meanwhile confirmed is untouched.
func (r *TransactionRepository) ExpireByReference(ctx context.Context, reference string, cutoff time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET status = $1
		WHERE provider_reference = $2 AND status = $3 AND created_at < $4`,
		domain.TransactionStatusExpired, reference, domain.TransactionStatusPending, cutoff,
	)
	if err != nil {
		return false, fmt.Errorf("ExpireByReference: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ExpireByReference: rows affected: %w", err)
	}
	return rows > 0, nil
}

// ExpireStale flips every pending charge of the account created before
// cutoff. Withdrawals (direction sent) never expire; they are written
// completed.
func (r *TransactionRepository) ExpireStale(ctx context.Context, userID uuid.UUID, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET status = $1
		WHERE user_id = $2 AND direction = $3 AND status = $4 AND created_at < $5`,
		domain.TransactionStatusExpired, userID, domain.DirectionReceived,
		domain.TransactionStatusPending, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("ExpireStale: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ExpireStale: rows affected: %w", err)
	}
	return rows, nil
}

const totalsQuery = `SELECT
	COALESCE(SUM(amount) FILTER (WHERE direction = 'received' AND status = 'completed'), 0),
	COALESCE(SUM(amount) FILTER (WHERE direction = 'sent' AND status = 'completed'), 0),
	COUNT(*) FILTER (WHERE direction = 'received' AND status = 'completed'),
	COUNT(*) FILTER (WHERE status = 'pending')
	FROM transactions WHERE user_id = $1`

// Totals aggregates the account's log in a single statement, so the
// result is one consistent snapshot.
func (r *TransactionRepository) Totals(ctx context.Context, userID uuid.UUID) (*LedgerTotals, error) {
	return scanTotals(r.db.QueryRowContext(ctx, totalsQuery, userID))
}

// TotalsTx is Totals executed inside a caller-held transaction; the
// withdrawal path uses it so the balance it checks cannot move before the
// ledger append commits.
func (r *TransactionRepository) TotalsTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (*LedgerTotals, error) {
	return scanTotals(tx.QueryRowContext(ctx, totalsQuery, userID))
}

func scanTotals(row scanner) (*LedgerTotals, error) {
	var t LedgerTotals
	if err := row.Scan(&t.Received, &t.Sent, &t.FeeCount, &t.PendingCount); err != nil {
		return nil, fmt.Errorf("scanTotals: %w", err)
	}
	return &t, nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListByUser: scan: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListByUser: rows: %w", err)
	}
	return txns, total, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := s.Scan(
		&txn.ID, &txn.UserID, &txn.Direction, &txn.Amount, &txn.CounterpartyName,
		&txn.CounterpartyDocument, &txn.ProviderReference, &txn.Description,
		&txn.Status, &txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
