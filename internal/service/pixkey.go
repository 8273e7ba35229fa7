package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pixfacil/pixfacil/internal/domain"
	"github.com/pixfacil/pixfacil/internal/logging"
)

type pixKeyRepo interface {
	Create(ctx context.Context, key *domain.PixKey) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.PixKey, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type PixKeyService struct {
	keys pixKeyRepo
}

func NewPixKeyService(keys pixKeyRepo) *PixKeyService {
	return &PixKeyService{keys: keys}
}

type CreatePixKeyRequest struct {
	AccountID      uuid.UUID
	KeyType        domain.PixKeyType
	KeyValue       string
	HolderName     string
	HolderDocument string
	BankName       string
}

func (s *PixKeyService) CreateKey(ctx context.Context, req CreatePixKeyRequest) (*domain.PixKey, error) {
	key := &domain.PixKey{
		ID:             uuid.New(),
		UserID:         req.AccountID,
		KeyType:        req.KeyType,
		KeyValue:       req.KeyValue,
		HolderName:     req.HolderName,
		HolderDocument: normalizeDocument(req.HolderDocument),
		BankName:       req.BankName,
		Status:         domain.PixKeyStatusActive,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.keys.Create(ctx, key); err != nil {
		return nil, fmt.Errorf("CreateKey: %w", err)
	}

	logging.FromContext(ctx).Info("pix key registered",
		"pix_key_id", key.ID,
		"key_type", key.KeyType,
	)
	return key, nil
}

func (s *PixKeyService) ListKeys(ctx context.Context, accountID uuid.UUID) ([]domain.PixKey, error) {
	keys, err := s.keys.ListByUser(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ListKeys: %w", err)
	}
	return keys, nil
}

// DeleteKey removes a key the caller owns. Keys owned by other accounts
// report ErrNotFound, never a permission error, to avoid leaking existence.
func (s *PixKeyService) DeleteKey(ctx context.Context, id, accountID uuid.UUID) error {
	if err := s.keys.Delete(ctx, id, accountID); err != nil {
		return fmt.Errorf("DeleteKey: %w", err)
	}
	return nil
}
