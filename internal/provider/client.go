// Package provider talks to the external PIX payment provider. The provider
// is opaque: charges are created and polled over HTTP, and its status
// vocabulary is interpreted by the reconciliation service, not here.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pixfacil/pixfacil/internal/domain"
	"github.com/pixfacil/pixfacil/internal/logging"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type Payer struct {
	Name     string `json:"name"`
	Document string `json:"document"`
}

type ChargeRequest struct {
	ReferenceID string          `json:"reference_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	ExpiresIn   int             `json:"expires_in"`
	Payer       *Payer          `json:"payer,omitempty"`
}

// Charge is the provider's view of one PIX charge. QRCode renders as an
// image; PaymentCode is the copy-and-paste EMV string.
type Charge struct {
	Reference   string          `json:"txid"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	QRCode      string          `json:"qr_code"`
	PaymentCode string          `json:"payment_code"`
}

type ChargeStatus struct {
	Reference string `json:"txid"`
	Status    string `json:"status"`
}

func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	log := logging.FromContext(ctx)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("CreateCharge: marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("CreateCharge: build request: %w", err)
	}
	c.setHeaders(httpReq)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("CreateCharge: send: %w", domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	log.Info("provider charge request",
		"reference_id", req.ReferenceID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, upstreamError(resp)
	}

	var charge Charge
	if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
		return nil, fmt.Errorf("CreateCharge: decode: %w", err)
	}
	return &charge, nil
}

func (c *Client) GetChargeStatus(ctx context.Context, reference string) (*ChargeStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/charges/"+reference, nil)
	if err != nil {
		return nil, fmt.Errorf("GetChargeStatus: build request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("GetChargeStatus: send: %w", domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, upstreamError(resp)
	}

	var status ChargeStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("GetChargeStatus: decode: %w", err)
	}
	return &status, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func upstreamError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &domain.UpstreamError{StatusCode: resp.StatusCode, Body: body}
}
