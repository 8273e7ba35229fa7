package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixfacil/pixfacil/internal/domain"
)

func TestRespondDomainError_UpstreamBodies(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		wantDetails any
	}{
		{
			name:        "json rejection payload passed through",
			body:        []byte(`{"error":"amount out of range"}`),
			wantDetails: map[string]any{"error": "amount out of range"},
		},
		{
			name:        "plain text rejection carried as string",
			body:        []byte("502 Bad Gateway: upstream reset"),
			wantDetails: "502 Bad Gateway: upstream reset",
		},
		{
			name:        "empty body",
			body:        nil,
			wantDetails: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			err := fmt.Errorf("CreateCharge: %w", &domain.UpstreamError{
				StatusCode: http.StatusUnprocessableEntity,
				Body:       tc.body,
			})

			RespondDomainError(rr, err)

			assert.Equal(t, http.StatusBadGateway, rr.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), "envelope must stay encodable")
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "UPSTREAM_ERROR", resp.Error.Code)
			assert.Equal(t, tc.wantDetails, resp.Error.Details)
		})
	}
}

func TestRespondDomainError_InsufficientBalance(t *testing.T) {
	rr := httptest.NewRecorder()
	err := fmt.Errorf("Withdraw: %w", &domain.InsufficientBalanceError{
		Available: decimal.RequireFromString("9.80"),
		Requested: decimal.RequireFromString("50.00"),
	})

	RespondDomainError(rr, err)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INSUFFICIENT_BALANCE", resp.Error.Code)
	assert.Equal(t, map[string]any{"available": "9.80", "requested": "50.00"}, resp.Error.Details)
}
