package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrMissingDestination  = errors.New("destination key and key type are required")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidPayer        = errors.New("payer name and document must be provided together")
	ErrUpstreamUnavailable = errors.New("payment provider unreachable")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrDuplicateReference  = errors.New("provider reference already recorded")
	ErrPixKeyTaken         = errors.New("pix key already registered for this account")
)

// UpstreamError carries the provider's rejection payload through to the
// caller. It is non-retryable, unlike ErrUpstreamUnavailable.
type UpstreamError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider rejected request: status %d", e.StatusCode)
}

// InsufficientBalanceError reports what was available against what was
// requested. errors.Is(err, ErrInsufficientBalance) matches it.
type InsufficientBalanceError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %s, requested %s", e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }
