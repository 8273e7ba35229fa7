package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixfacil/pixfacil/internal/domain"
	"github.com/pixfacil/pixfacil/internal/service"
)

const testWebhookSecret = "test-secret-key"

type mockReconciler struct {
	reference string
	status    string
	result    *service.ReconcileResult
	err       error
}

func (m *mockReconciler) Reconcile(_ context.Context, reference, providerStatus string) (*service.ReconcileResult, error) {
	m.reference = reference
	m.status = providerStatus
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &service.ReconcileResult{Status: "completed", Paid: true}, nil
}

func signPayload(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func validWebhookBody() string {
	b, _ := json.Marshal(webhookPayload{
		Reference: "chg-webhook-1",
		Status:    "paid",
		EventID:   "evt-1",
	})
	return string(b)
}

func TestVerifyHMAC(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		signature string
		secret    string
		want      bool
	}{
		{
			name:      "valid signature",
			body:      `{"txid":"abc"}`,
			signature: signPayload(`{"txid":"abc"}`, testWebhookSecret),
			secret:    testWebhookSecret,
			want:      true,
		},
		{
			name:      "wrong signature",
			body:      `{"txid":"abc"}`,
			signature: "deadbeef",
			secret:    testWebhookSecret,
			want:      false,
		},
		{
			name:      "empty signature",
			body:      `{"txid":"abc"}`,
			signature: "",
			secret:    testWebhookSecret,
			want:      false,
		},
		{
			name:      "wrong secret",
			body:      `{"txid":"abc"}`,
			signature: signPayload(`{"txid":"abc"}`, "other-secret"),
			secret:    testWebhookSecret,
			want:      false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := verifyHMAC([]byte(tc.body), tc.signature, tc.secret)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReceiveProviderWebhook(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupSig   func(body string) string
		reconciler *mockReconciler
		wantStatus int
		wantCode   string
	}{
		{
			name:       "valid signed webhook",
			body:       validWebhookBody(),
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing signature header",
			body:       validWebhookBody(),
			setupSig:   nil,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_SIGNATURE",
		},
		{
			name:       "invalid HMAC signature",
			body:       validWebhookBody(),
			setupSig:   func(_ string) string { return "deadbeefdeadbeef" },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_SIGNATURE",
		},
		{
			name:       "invalid JSON body",
			body:       "not-json",
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name: "missing required fields",
			body: func() string {
				b, _ := json.Marshal(map[string]string{"status": "paid"})
				return string(b)
			}(),
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:     "unknown reference returns OK",
			body:     validWebhookBody(),
			setupSig: func(body string) string { return signPayload(body, testWebhookSecret) },
			reconciler: &mockReconciler{
				result: &service.ReconcileResult{Status: "paid", Paid: true},
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "storage failure returns 503",
			body:       validWebhookBody(),
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			reconciler: &mockReconciler{err: sql.ErrConnDone},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "STORAGE_UNAVAILABLE",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reconciler := tc.reconciler
			if reconciler == nil {
				reconciler = &mockReconciler{}
			}
			h := NewWebhookHandler(reconciler, testWebhookSecret)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", strings.NewReader(tc.body))
			if tc.setupSig != nil {
				req.Header.Set("X-Webhook-Signature", tc.setupSig(tc.body))
			}
			rr := httptest.NewRecorder()

			h.ReceiveProviderWebhook(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

			if tc.wantCode == "" {
				assert.True(t, resp.Success)
			} else {
				assert.False(t, resp.Success)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestReceiveProviderWebhook_ForwardsPayloadToReconciler(t *testing.T) {
	reconciler := &mockReconciler{
		result: &service.ReconcileResult{Status: string(domain.TransactionStatusCompleted), Paid: true},
	}
	h := NewWebhookHandler(reconciler, testWebhookSecret)

	body := validWebhookBody()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signPayload(body, testWebhookSecret))
	rr := httptest.NewRecorder()

	h.ReceiveProviderWebhook(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "chg-webhook-1", reconciler.reference)
	assert.Equal(t, "paid", reconciler.status)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var status chargeStatusDTO
	require.NoError(t, json.Unmarshal(data, &status))
	assert.Equal(t, "chg-webhook-1", status.Reference)
	assert.True(t, status.Paid)
}
