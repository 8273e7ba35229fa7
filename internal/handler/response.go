package handler

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lib/pq"

	"github.com/pixfacil/pixfacil/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError maps core errors to their HTTP shape. Retryable
// conditions (provider or storage unreachable) map to 503 so callers can
// tell them apart from rejections.
func RespondDomainError(w http.ResponseWriter, err error) {
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		RespondAppError(w, ErrUpstream, upstreamDetails(upstream.Body))
		return
	}

	var insufficient *domain.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		RespondAppError(w, ErrInsufficientBalance, map[string]string{
			"available": insufficient.Available.StringFixed(2),
			"requested": insufficient.Requested.StringFixed(2),
		})
		return
	}

	var appErr *AppError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		appErr = ErrResourceNotFound
	case errors.Is(err, domain.ErrInvalidAmount):
		appErr = ErrInvalidAmount
	case errors.Is(err, domain.ErrMissingDestination):
		appErr = ErrMissingDestination
	case errors.Is(err, domain.ErrInvalidPayer):
		appErr = ErrInvalidPayer
	case errors.Is(err, domain.ErrEmailTaken):
		appErr = ErrEmailTaken
	case errors.Is(err, domain.ErrInvalidCredentials):
		appErr = ErrInvalidCredentials
	case errors.Is(err, domain.ErrDuplicateReference):
		appErr = ErrDuplicateReference
	case errors.Is(err, domain.ErrPixKeyTaken):
		appErr = ErrPixKeyTaken
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		appErr = ErrUpstreamUnavailable
	case isStorageUnavailable(err):
		appErr = ErrStorageUnavailable
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr, nil)
}

// upstreamDetails passes the provider's rejection payload through when it is
// JSON; anything else is carried as a plain string so encoding the envelope
// never fails.
func upstreamDetails(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}

// isStorageUnavailable recognizes connection-level database failures, as
// opposed to constraint violations or query bugs.
func isStorageUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		class := pqErr.Code.Class()
		// 08 connection exception, 53 insufficient resources, 57 operator intervention
		return class == "08" || class == "53" || class == "57"
	}
	return false
}
