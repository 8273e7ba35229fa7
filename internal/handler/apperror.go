package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrMissingDestination  = &AppError{http.StatusBadRequest, "MISSING_DESTINATION", "Destination key and key type are required"}
	ErrInvalidPayer        = &AppError{http.StatusBadRequest, "INVALID_PAYER", "Payer name and document must be provided together"}
	ErrInsufficientBalance = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", "Insufficient balance"}
	ErrEmailTaken          = &AppError{http.StatusConflict, "EMAIL_TAKEN", "Email already registered"}
	ErrDuplicateReference  = &AppError{http.StatusConflict, "DUPLICATE_REFERENCE", "Provider reference already recorded"}
	ErrPixKeyTaken         = &AppError{http.StatusConflict, "PIX_KEY_TAKEN", "Pix key already registered"}

	ErrUpstream            = &AppError{http.StatusBadGateway, "UPSTREAM_ERROR", "Payment provider rejected the request"}
	ErrUpstreamUnavailable = &AppError{http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Payment provider is unreachable"}
	ErrStorageUnavailable  = &AppError{http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Storage backend is unreachable"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
