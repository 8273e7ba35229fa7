package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixfacil/pixfacil/internal/domain"
	"github.com/pixfacil/pixfacil/internal/repository"
	"github.com/pixfacil/pixfacil/internal/service"
	"github.com/pixfacil/pixfacil/internal/testutil"
)

func setupWithdrawalService(t *testing.T, db *sql.DB) *service.WithdrawalService {
	t.Helper()
	return service.NewWithdrawalService(
		db,
		repository.NewUserRepository(db),
		repository.NewTransactionRepository(db),
		defaultFee,
	)
}

func TestWithdraw_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "withdraw@test.com", "Withdraw")
	testutil.SeedTransaction(t, db, user.ID, domain.DirectionReceived, "100.00",
		domain.TransactionStatusCompleted, testutil.Ref("chg-w1"))

	w, err := svc.Withdraw(ctx, service.WithdrawRequest{
		AccountID:      user.ID,
		Amount:         decimal.RequireFromString("40.00"),
		DestinationKey: "user@bank.com",
		KeyType:        "email",
	})
	require.NoError(t, err)

	assert.Equal(t, "40.00", w.Amount.StringFixed(2))
	assert.Equal(t, "user@bank.com", w.DestinationKey)
	// 100.00 - 0.20 fee - 40.00
	assert.Equal(t, "59.80", w.Balance.StringFixed(2))
	assert.Equal(t, domain.TransactionStatusCompleted, testutil.GetTransactionStatus(t, db, w.TransactionID))
	assert.Equal(t, 2, testutil.CountTransactions(t, db, user.ID))
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "poor@test.com", "Poor")
	testutil.SeedTransaction(t, db, user.ID, domain.DirectionReceived, "10.00",
		domain.TransactionStatusCompleted, testutil.Ref("chg-w2"))

	_, err := svc.Withdraw(ctx, service.WithdrawRequest{
		AccountID:      user.ID,
		Amount:         decimal.RequireFromString("50.00"),
		DestinationKey: "user@bank.com",
		KeyType:        "email",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	var insufficientErr *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, "9.80", insufficientErr.Available.StringFixed(2))
	assert.Equal(t, "50.00", insufficientErr.Requested.StringFixed(2))

	// Nothing was appended to the log.
	assert.Equal(t, 1, testutil.CountTransactions(t, db, user.ID))
}

func TestWithdraw_PendingDoesNotFundWithdrawals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "pending@test.com", "Pending")
	testutil.SeedTransaction(t, db, user.ID, domain.DirectionReceived, "500.00",
		domain.TransactionStatusPending, testutil.Ref("chg-w3"))

	_, err := svc.Withdraw(ctx, service.WithdrawRequest{
		AccountID:      user.ID,
		Amount:         decimal.RequireFromString("1.00"),
		DestinationKey: "11999990000",
		KeyType:        "phone",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, 1, testutil.CountTransactions(t, db, user.ID))
}

func TestWithdraw_ExactBalanceThenEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "drain@test.com", "Drain")
	testutil.SeedTransaction(t, db, user.ID, domain.DirectionReceived, "100.00",
		domain.TransactionStatusCompleted, testutil.Ref("chg-w4"))

	w, err := svc.Withdraw(ctx, service.WithdrawRequest{
		AccountID:      user.ID,
		Amount:         decimal.RequireFromString("99.80"),
		DestinationKey: "user@bank.com",
		KeyType:        "email",
	})
	require.NoError(t, err)
	assert.Equal(t, "0.00", w.Balance.StringFixed(2))

	_, err = svc.Withdraw(ctx, service.WithdrawRequest{
		AccountID:      user.ID,
		Amount:         decimal.RequireFromString("0.01"),
		DestinationKey: "user@bank.com",
		KeyType:        "email",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestWithdraw_ConcurrentNeverOverdraws(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "race@test.com", "Race")
	testutil.SeedTransaction(t, db, user.ID, domain.DirectionReceived, "100.20",
		domain.TransactionStatusCompleted, testutil.Ref("chg-w5"))
	// Available after the fee: 100.00. Two 70.00 withdrawals both fit
	// individually but not together.

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(ctx, service.WithdrawRequest{
				AccountID:      user.ID,
				Amount:         decimal.RequireFromString("70.00"),
				DestinationKey: "user@bank.com",
				KeyType:        "email",
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
			failures++
		}
	}

	assert.Equal(t, 1, successes, "exactly one withdrawal should succeed")
	assert.Equal(t, 1, failures, "exactly one withdrawal should fail")

	ledger := service.NewLedger(repository.NewTransactionRepository(db), defaultFee, 0)
	balance, err := ledger.ComputeBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "30.00", balance.Available.StringFixed(2), "balance must never go negative")
}

func TestWithdraw_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupWithdrawalService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "invalid@test.com", "Invalid")

	tests := []struct {
		name    string
		req     service.WithdrawRequest
		wantErr error
	}{
		{
			name: "zero amount",
			req: service.WithdrawRequest{
				AccountID:      user.ID,
				Amount:         decimal.Zero,
				DestinationKey: "user@bank.com",
				KeyType:        "email",
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			req: service.WithdrawRequest{
				AccountID:      user.ID,
				Amount:         decimal.RequireFromString("-5.00"),
				DestinationKey: "user@bank.com",
				KeyType:        "email",
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "missing destination key",
			req: service.WithdrawRequest{
				AccountID: user.ID,
				Amount:    decimal.RequireFromString("5.00"),
				KeyType:   "email",
			},
			wantErr: domain.ErrMissingDestination,
		},
		{
			name: "missing key type",
			req: service.WithdrawRequest{
				AccountID:      user.ID,
				Amount:         decimal.RequireFromString("5.00"),
				DestinationKey: "user@bank.com",
			},
			wantErr: domain.ErrMissingDestination,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Withdraw(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 0, testutil.CountTransactions(t, db, user.ID))
}
