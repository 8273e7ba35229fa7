package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixfacil/pixfacil/internal/domain"
	"github.com/pixfacil/pixfacil/internal/repository"
	"github.com/pixfacil/pixfacil/internal/service"
	"github.com/pixfacil/pixfacil/internal/testutil"
)

func TestPixKeys_CreateListDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewPixKeyService(repository.NewPixKeyRepository(db))
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "keys@test.com", "Keys")

	created, err := svc.CreateKey(ctx, service.CreatePixKeyRequest{
		AccountID:      user.ID,
		KeyType:        domain.PixKeyTypeEmail,
		KeyValue:       "keys@test.com",
		HolderName:     "Keys Holder",
		HolderDocument: "123.456.789-09",
		BankName:       "Banco Teste",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PixKeyStatusActive, created.Status)
	assert.Equal(t, "12345678909", created.HolderDocument, "document stored normalized")

	keys, err := svc.ListKeys(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, created.ID, keys[0].ID)

	require.NoError(t, svc.DeleteKey(ctx, created.ID, user.ID))

	keys, err = svc.ListKeys(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestPixKeys_DuplicateKeyValue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewPixKeyService(repository.NewPixKeyRepository(db))
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "dupkey@test.com", "DupKey")
	other := testutil.SeedTestUser(t, db, "otherkey@test.com", "OtherKey")

	req := service.CreatePixKeyRequest{
		AccountID:  user.ID,
		KeyType:    domain.PixKeyTypeEmail,
		KeyValue:   "dupkey@test.com",
		HolderName: "Dup Holder",
	}

	_, err := svc.CreateKey(ctx, req)
	require.NoError(t, err)

	_, err = svc.CreateKey(ctx, req)
	require.ErrorIs(t, err, domain.ErrPixKeyTaken)

	// Uniqueness is per account; another account may hold the same value.
	req.AccountID = other.ID
	_, err = svc.CreateKey(ctx, req)
	require.NoError(t, err)
}

func TestPixKeys_DeleteScopedToOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewPixKeyService(repository.NewPixKeyRepository(db))
	ctx := context.Background()

	owner := testutil.SeedTestUser(t, db, "owner@test.com", "Owner")
	intruder := testutil.SeedTestUser(t, db, "intruder@test.com", "Intruder")

	key, err := svc.CreateKey(ctx, service.CreatePixKeyRequest{
		AccountID: owner.ID,
		KeyType:   domain.PixKeyTypeRandom,
		KeyValue:  uuid.NewString(),
	})
	require.NoError(t, err)

	// Another account's key looks exactly like a missing one.
	err = svc.DeleteKey(ctx, key.ID, intruder.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	keys, err := svc.ListKeys(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, keys, 1, "owner's key survives the foreign delete")
}

func TestPixKeys_DeleteUnknownKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewPixKeyService(repository.NewPixKeyRepository(db))
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "nokey@test.com", "NoKey")

	err := svc.DeleteKey(ctx, uuid.New(), user.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
