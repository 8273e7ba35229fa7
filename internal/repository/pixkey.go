package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pixfacil/pixfacil/internal/domain"
)

const pixKeyColumns = `id, user_id, key_type, key_value, holder_name,
	holder_document, bank_name, status, created_at`

type PixKeyRepository struct {
	db *sql.DB
}

func NewPixKeyRepository(db *sql.DB) *PixKeyRepository {
	return &PixKeyRepository{db: db}
}

func (r *PixKeyRepository) Create(ctx context.Context, key *domain.PixKey) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pix_keys (
			id, user_id, key_type, key_value, holder_name,
			holder_document, bank_name, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		key.ID, key.UserID, key.KeyType, key.KeyValue, key.HolderName,
		key.HolderDocument, key.BankName, key.Status, key.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrPixKeyTaken)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PixKeyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.PixKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+pixKeyColumns+` FROM pix_keys
		WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	var keys []domain.PixKey
	for rows.Next() {
		k, err := scanPixKey(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByUser: scan: %w", err)
		}
		keys = append(keys, *k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByUser: rows: %w", err)
	}
	return keys, nil
}

// Delete removes the key only when it belongs to userID. A key that exists
// under another account is indistinguishable from an absent one.
func (r *PixKeyRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM pix_keys WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanPixKey(s scanner) (*domain.PixKey, error) {
	var k domain.PixKey
	err := s.Scan(
		&k.ID, &k.UserID, &k.KeyType, &k.KeyValue, &k.HolderName,
		&k.HolderDocument, &k.BankName, &k.Status, &k.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &k, nil
}
