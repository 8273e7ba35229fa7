package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pixfacil/pixfacil/internal/domain"
	"github.com/pixfacil/pixfacil/internal/logging"
)

type reconcileRepo interface {
	GetByProviderReference(ctx context.Context, reference string) (*domain.Transaction, error)
	CompleteByReference(ctx context.Context, reference string) (bool, error)
	ExpireByReference(ctx context.Context, reference string, cutoff time.Time) (bool, error)
}

// Reconciler applies provider-reported charge statuses to the local log.
// The only transition it ever performs from a paid report is
// pending -> completed, through a conditional update, so invoking it
// repeatedly or concurrently for the same reference collapses to one state
// change.
type Reconciler struct {
	transactions reconcileRepo
	paid         map[string]struct{}
	chargeTTL    time.Duration
}

// NewReconciler builds a reconciler that treats any of paidStatuses
// (case-insensitive) as payment confirmation.
func NewReconciler(transactions reconcileRepo, paidStatuses []string, chargeTTL time.Duration) *Reconciler {
	paid := make(map[string]struct{}, len(paidStatuses))
	for _, s := range paidStatuses {
		paid[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return &Reconciler{
		transactions: transactions,
		paid:         paid,
		chargeTTL:    chargeTTL,
	}
}

type ReconcileResult struct {
	Status string
	Paid   bool
}

// Reconcile looks up the transaction behind a provider reference and
// conditionally advances its status. An unknown reference is not an error:
// the provider's status is reported back untouched, with no local mutation.
func (r *Reconciler) Reconcile(ctx context.Context, reference, providerStatus string) (*ReconcileResult, error) {
	log := logging.FromContext(ctx)
	paid := r.isPaid(providerStatus)

	txn, err := r.transactions.GetByProviderReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &ReconcileResult{Status: providerStatus, Paid: paid}, nil
		}
		return nil, fmt.Errorf("Reconcile: %w", err)
	}

	if paid {
		return r.applyPaid(ctx, reference, txn)
	}

	if txn.Status == domain.TransactionStatusPending && r.pastWindow(txn.CreatedAt) {
		expired, err := r.transactions.ExpireByReference(ctx, reference, r.expiryCutoff())
		if err != nil {
			return nil, fmt.Errorf("Reconcile: %w", err)
		}
		if expired {
			log.Info("charge expired", "provider_reference", reference)
			return &ReconcileResult{Status: string(domain.TransactionStatusExpired)}, nil
		}
	}

	return &ReconcileResult{
		Status: string(txn.Status),
		Paid:   txn.Status == domain.TransactionStatusCompleted,
	}, nil
}

func (r *Reconciler) applyPaid(ctx context.Context, reference string, txn *domain.Transaction) (*ReconcileResult, error) {
	log := logging.FromContext(ctx)

	switch txn.Status {
	case domain.TransactionStatusPending:
		transitioned, err := r.transactions.CompleteByReference(ctx, reference)
		if err != nil {
			return nil, fmt.Errorf("applyPaid: %w", err)
		}
		if transitioned {
			log.Info("charge completed", "provider_reference", reference, "transaction_id", txn.ID)
		}
		// A lost race means someone else completed it first; same end state.
		return &ReconcileResult{Status: string(domain.TransactionStatusCompleted), Paid: true}, nil

	case domain.TransactionStatusCompleted:
		return &ReconcileResult{Status: string(domain.TransactionStatusCompleted), Paid: true}, nil

	default:
		// Locally expired but the provider reports paid. Expired is terminal
		// here; surface the mismatch for operators instead of reopening.
		log.Warn("paid report for expired charge",
			"provider_reference", reference,
			"transaction_id", txn.ID,
		)
		return &ReconcileResult{Status: string(txn.Status), Paid: true}, nil
	}
}

func (r *Reconciler) isPaid(providerStatus string) bool {
	_, ok := r.paid[strings.ToLower(strings.TrimSpace(providerStatus))]
	return ok
}

func (r *Reconciler) pastWindow(createdAt time.Time) bool {
	return r.chargeTTL > 0 && time.Since(createdAt) > r.chargeTTL
}

func (r *Reconciler) expiryCutoff() time.Time {
	return time.Now().UTC().Add(-r.chargeTTL)
}
