package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/pixfacil/pixfacil/internal/domain"
)

func SeedTestUser(t *testing.T, db *sql.DB, email, name string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

// SeedTransaction inserts one ledger entry directly, bypassing the services.
func SeedTransaction(t *testing.T, db *sql.DB, userID uuid.UUID, direction domain.Direction, amount string, status domain.TransactionStatus, providerRef *string) *domain.Transaction {
	t.Helper()
	return SeedTransactionAt(t, db, userID, direction, amount, status, providerRef, time.Now().UTC())
}

func SeedTransactionAt(t *testing.T, db *sql.DB, userID uuid.UUID, direction domain.Direction, amount string, status domain.TransactionStatus, providerRef *string, createdAt time.Time) *domain.Transaction {
	t.Helper()

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("parse amount %q: %v", amount, err)
	}

	txn := &domain.Transaction{
		ID:                uuid.New(),
		UserID:            userID,
		Direction:         direction,
		Amount:            amt,
		ProviderReference: providerRef,
		Status:            status,
		CreatedAt:         createdAt,
	}

	_, err = db.Exec(
		`INSERT INTO transactions (id, user_id, direction, amount, provider_reference, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		txn.ID, txn.UserID, txn.Direction, txn.Amount, txn.ProviderReference, txn.Status, txn.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return txn
}

func GetTransactionStatus(t *testing.T, db *sql.DB, id uuid.UUID) domain.TransactionStatus {
	t.Helper()

	var status domain.TransactionStatus
	err := db.QueryRow(`SELECT status FROM transactions WHERE id = $1`, id).Scan(&status)
	if err != nil {
		t.Fatalf("get transaction status %s: %v", id, err)
	}
	return status
}

func CountTransactions(t *testing.T, db *sql.DB, userID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for %s: %v", userID, err)
	}
	return count
}

func Ref(s string) *string { return &s }
