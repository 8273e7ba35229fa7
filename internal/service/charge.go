package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pixfacil/pixfacil/internal/domain"
	"github.com/pixfacil/pixfacil/internal/logging"
	"github.com/pixfacil/pixfacil/internal/provider"
)

type providerAPI interface {
	CreateCharge(ctx context.Context, req provider.ChargeRequest) (*provider.Charge, error)
	GetChargeStatus(ctx context.Context, reference string) (*provider.ChargeStatus, error)
}

type chargeTxnRepo interface {
	Create(ctx context.Context, tx *sql.Tx, txn *domain.Transaction) error
}

// ChargeService issues PIX charges through the provider and records them
// as pending received transactions. The local write happens only after the
// provider accepts the charge, so a rejected or timed-out request leaves
// no trace in the ledger.
type ChargeService struct {
	db            *sql.DB
	transactions  chargeTxnRepo
	provider      providerAPI
	reconciler    *Reconciler
	expirySeconds int
}

func NewChargeService(db *sql.DB, transactions chargeTxnRepo, providerClient providerAPI, reconciler *Reconciler, expirySeconds int) *ChargeService {
	return &ChargeService{
		db:            db,
		transactions:  transactions,
		provider:      providerClient,
		reconciler:    reconciler,
		expirySeconds: expirySeconds,
	}
}

type PayerInfo struct {
	Name     string
	Document string
}

type CreateChargeRequest struct {
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Description string
	Payer       *PayerInfo
}

type ChargeResult struct {
	TransactionID uuid.UUID
	Reference     string
	Status        string
	Amount        decimal.Decimal
	QRCode        string
	PaymentCode   string
}

func (s *ChargeService) CreateCharge(ctx context.Context, req CreateChargeRequest) (*ChargeResult, error) {
	log := logging.FromContext(ctx)

	payer, err := validateChargeRequest(&req)
	if err != nil {
		return nil, fmt.Errorf("CreateCharge: %w", err)
	}

	charge, err := s.provider.CreateCharge(ctx, provider.ChargeRequest{
		ReferenceID: uuid.NewString(),
		Amount:      req.Amount.Round(2),
		Description: req.Description,
		ExpiresIn:   s.expirySeconds,
		Payer:       payer,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateCharge: %w", err)
	}

	txn, err := s.recordPendingCharge(ctx, req, charge)
	if err != nil {
		return nil, fmt.Errorf("CreateCharge: %w", err)
	}

	log.Info("charge created",
		"transaction_id", txn.ID,
		"provider_reference", charge.Reference,
		"amount", req.Amount,
	)

	return &ChargeResult{
		TransactionID: txn.ID,
		Reference:     charge.Reference,
		Status:        charge.Status,
		Amount:        charge.Amount,
		QRCode:        charge.QRCode,
		PaymentCode:   charge.PaymentCode,
	}, nil
}

// PollCharge fetches the provider's current status for a charge and feeds
// it through reconciliation. Re-polling is the caller's retry mechanism;
// reconciliation being idempotent makes that safe.
func (s *ChargeService) PollCharge(ctx context.Context, reference string) (*ReconcileResult, error) {
	status, err := s.provider.GetChargeStatus(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("PollCharge: %w", err)
	}

	res, err := s.reconciler.Reconcile(ctx, reference, status.Status)
	if err != nil {
		return nil, fmt.Errorf("PollCharge: %w", err)
	}
	return res, nil
}

func validateChargeRequest(req *CreateChargeRequest) (*provider.Payer, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	if req.Payer == nil {
		return nil, nil
	}

	name := strings.TrimSpace(req.Payer.Name)
	document := normalizeDocument(req.Payer.Document)

	if name == "" && document == "" {
		return nil, nil
	}
	if name == "" || document == "" {
		return nil, domain.ErrInvalidPayer
	}

	return &provider.Payer{Name: name, Document: document}, nil
}

// normalizeDocument strips everything but digits from a CPF/CNPJ, so
// "123.456.789-09" and "12345678909" are the same document.
func normalizeDocument(document string) string {
	var b strings.Builder
	for _, r := range document {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *ChargeService) recordPendingCharge(ctx context.Context, req CreateChargeRequest, charge *provider.Charge) (*domain.Transaction, error) {
	txn := &domain.Transaction{
		ID:                uuid.New(),
		UserID:            req.AccountID,
		Direction:         domain.DirectionReceived,
		Amount:            req.Amount.Round(2),
		ProviderReference: &charge.Reference,
		Status:            domain.TransactionStatusPending,
		CreatedAt:         time.Now().UTC(),
	}
	if req.Description != "" {
		txn.Description = &req.Description
	}
	if req.Payer != nil {
		if name := strings.TrimSpace(req.Payer.Name); name != "" {
			txn.CounterpartyName = &name
		}
		if document := normalizeDocument(req.Payer.Document); document != "" {
			txn.CounterpartyDocument = &document
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("recordPendingCharge: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("recordPendingCharge: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("recordPendingCharge: commit: %w", err)
	}
	return txn, nil
}
