// mock-provider is a stand-in PIX provider for local development. Charges
// live in memory; POST /v2/charges/{txid}/pay simulates the payer scanning
// the code.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type charge struct {
	Reference   string          `json:"txid"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	QRCode      string          `json:"qr_code"`
	PaymentCode string          `json:"payment_code"`
}

type store struct {
	mu      sync.Mutex
	charges map[string]*charge
}

type createChargeRequest struct {
	ReferenceID string          `json:"reference_id"`
	Amount      decimal.Decimal `json:"amount"`
	ExpiresIn   int             `json:"expires_in"`
}

func main() {
	s := &store{charges: make(map[string]*charge)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("POST /v2/charges", s.createCharge)
	mux.HandleFunc("GET /v2/charges/{txid}", s.getCharge)
	mux.HandleFunc("POST /v2/charges/{txid}/pay", s.payCharge)

	addr := ":8081"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}

	slog.Info("mock provider started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock provider stopped", "error", err)
		os.Exit(1)
	}
}

func (s *store) createCharge(w http.ResponseWriter, r *http.Request) {
	var req createChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	if !req.Amount.IsPositive() {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "amount must be positive"})
		return
	}

	txid := uuid.NewString()
	c := &charge{
		Reference:   txid,
		Status:      "active",
		Amount:      req.Amount,
		QRCode:      "data:image/png;base64,mock-" + txid,
		PaymentCode: "00020126mockpix" + txid + "6304ABCD",
	}

	s.mu.Lock()
	s.charges[txid] = c
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, c)
}

func (s *store) getCharge(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c, ok := s.charges[r.PathValue("txid")]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "charge not found"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *store) payCharge(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.charges[r.PathValue("txid")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "charge not found"})
		return
	}
	c.Status = "paid"
	writeJSON(w, http.StatusOK, c)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
