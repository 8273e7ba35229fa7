package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pixfacil/pixfacil/internal/logging"
	"github.com/pixfacil/pixfacil/internal/service"
)

type reconcileService interface {
	Reconcile(ctx context.Context, reference, providerStatus string) (*service.ReconcileResult, error)
}

// WebhookHandler ingests the provider's push notifications. Duplicate
// deliveries are harmless: reconciliation's conditional update makes the
// whole path idempotent.
type WebhookHandler struct {
	reconciler reconcileService
	secret     string
}

func NewWebhookHandler(reconciler reconcileService, secret string) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, secret: secret}
}

var ErrInvalidSignature = &AppError{http.StatusUnauthorized, "INVALID_SIGNATURE", "Webhook signature is invalid"}

type webhookPayload struct {
	Reference string `json:"txid"`
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
}

func (p webhookPayload) validate() []FieldError {
	var errs []FieldError
	if p.Reference == "" {
		errs = append(errs, FieldError{Field: "txid", Message: "required"})
	}
	if p.Status == "" {
		errs = append(errs, FieldError{Field: "status", Message: "required"})
	}
	return errs
}

func (h *WebhookHandler) ReceiveProviderWebhook(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		log.Error("failed to read webhook body", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	sig := r.Header.Get("X-Webhook-Signature")
	if !verifyHMAC(body, sig, h.secret) {
		log.Warn("webhook signature verification failed")
		RespondAppError(w, ErrInvalidSignature, nil)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn("failed to parse webhook payload", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := payload.validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.reconciler.Reconcile(r.Context(), payload.Reference, payload.Status)
	if err != nil {
		log.Error("webhook reconciliation failed", "provider_reference", payload.Reference, "error", err)
		RespondDomainError(w, err)
		return
	}

	log.Info("webhook reconciled",
		"provider_reference", payload.Reference,
		"provider_status", payload.Status,
		"event_id", payload.EventID,
		"local_status", res.Status,
	)

	RespondSuccess(w, http.StatusOK, chargeStatusDTO{
		Reference: payload.Reference,
		Status:    res.Status,
		Paid:      res.Paid,
	})
}

func verifyHMAC(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
