package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixfacil/pixfacil/internal/auth"
	"github.com/pixfacil/pixfacil/internal/handler"
	"github.com/pixfacil/pixfacil/internal/middleware"
	"github.com/pixfacil/pixfacil/internal/repository"
	"github.com/pixfacil/pixfacil/internal/testutil"
)

// countingHandler stands in for a money-moving endpoint: each real execution
// increments calls and returns a fresh response id.
type countingHandler struct {
	calls int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	handler.RespondSuccess(w, http.StatusCreated, map[string]string{
		"execution_id": uuid.NewString(),
	})
}

func idempotentRequest(t *testing.T, userID uuid.UUID, key, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func TestIdempotency_ReplaysCachedResponse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedTestUser(t, db, "idem@test.com", "Idem")

	next := &countingHandler{}
	wrapped := middleware.Idempotency(repository.NewIdempotencyRepository(db))(next)

	key := uuid.NewString()
	body := `{"amount":"10.00","key":"idem@test.com","key_type":"email"}`

	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, idempotentRequest(t, user.ID, key, body))
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get("X-Idempotent-Replayed"))

	second := httptest.NewRecorder()
	wrapped.ServeHTTP(second, idempotentRequest(t, user.ID, key, body))
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotent-Replayed"))

	assert.Equal(t, 1, next.calls, "retried request must not execute twice")
	assert.JSONEq(t, first.Body.String(), second.Body.String(), "replay returns the original response")
}

func TestIdempotency_KeyReuseWithDifferentBody(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedTestUser(t, db, "conflict@test.com", "Conflict")

	next := &countingHandler{}
	wrapped := middleware.Idempotency(repository.NewIdempotencyRepository(db))(next)

	key := uuid.NewString()

	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, idempotentRequest(t, user.ID, key, `{"amount":"10.00"}`))
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	wrapped.ServeHTTP(second, idempotentRequest(t, user.ID, key, `{"amount":"999.00"}`))
	assert.Equal(t, http.StatusConflict, second.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "IDEMPOTENCY_CONFLICT", resp.Error.Code)

	assert.Equal(t, 1, next.calls)
}

func TestIdempotency_MissingKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedTestUser(t, db, "nokey@test.com", "NoKey")

	next := &countingHandler{}
	wrapped := middleware.Idempotency(repository.NewIdempotencyRepository(db))(next)

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, idempotentRequest(t, user.ID, "", `{"amount":"10.00"}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_IDEMPOTENCY_KEY", resp.Error.Code)

	assert.Equal(t, 0, next.calls)
}

func TestIdempotency_KeysScopedPerUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.SeedTestUser(t, db, "alice@test.com", "Alice")
	bob := testutil.SeedTestUser(t, db, "bob@test.com", "Bob")

	next := &countingHandler{}
	wrapped := middleware.Idempotency(repository.NewIdempotencyRepository(db))(next)

	key := uuid.NewString()
	body := `{"amount":"10.00"}`

	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, idempotentRequest(t, alice.ID, key, body))
	require.Equal(t, http.StatusCreated, first.Code)

	// Same key from a different account is a fresh request, not a replay.
	second := httptest.NewRecorder()
	wrapped.ServeHTTP(second, idempotentRequest(t, bob.ID, key, body))
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Empty(t, second.Header().Get("X-Idempotent-Replayed"))

	assert.Equal(t, 2, next.calls)
}

func TestIdempotency_SkipsReads(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedTestUser(t, db, "reads@test.com", "Reads")

	next := &countingHandler{}
	wrapped := middleware.Idempotency(repository.NewIdempotencyRepository(db))(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	req = req.WithContext(auth.ContextWithUserID(req.Context(), user.ID))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 1, next.calls, "GET passes through without an Idempotency-Key")
}
