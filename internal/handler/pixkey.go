package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pixfacil/pixfacil/internal/auth"
	"github.com/pixfacil/pixfacil/internal/domain"
	"github.com/pixfacil/pixfacil/internal/service"
)

type pixKeyService interface {
	CreateKey(ctx context.Context, req service.CreatePixKeyRequest) (*domain.PixKey, error)
	ListKeys(ctx context.Context, accountID uuid.UUID) ([]domain.PixKey, error)
	DeleteKey(ctx context.Context, id, accountID uuid.UUID) error
}

type PixKeyHandler struct {
	keys pixKeyService
}

func NewPixKeyHandler(keys pixKeyService) *PixKeyHandler {
	return &PixKeyHandler{keys: keys}
}

var validKeyTypes = map[domain.PixKeyType]bool{
	domain.PixKeyTypeCPF:    true,
	domain.PixKeyTypeCNPJ:   true,
	domain.PixKeyTypeEmail:  true,
	domain.PixKeyTypePhone:  true,
	domain.PixKeyTypeRandom: true,
}

type createPixKeyRequest struct {
	KeyType        string `json:"key_type"`
	KeyValue       string `json:"key_value"`
	HolderName     string `json:"holder_name"`
	HolderDocument string `json:"holder_document"`
	BankName       string `json:"bank_name"`
}

func (r createPixKeyRequest) Validate() []FieldError {
	var errs []FieldError
	if r.KeyType == "" {
		errs = append(errs, FieldError{Field: "key_type", Message: "required"})
	} else if !validKeyTypes[domain.PixKeyType(r.KeyType)] {
		errs = append(errs, FieldError{Field: "key_type", Message: "must be cpf, cnpj, email, phone, or random"})
	}
	if r.KeyValue == "" {
		errs = append(errs, FieldError{Field: "key_value", Message: "required"})
	}
	if r.HolderName == "" {
		errs = append(errs, FieldError{Field: "holder_name", Message: "required"})
	}
	if r.HolderDocument == "" {
		errs = append(errs, FieldError{Field: "holder_document", Message: "required"})
	}
	if r.BankName == "" {
		errs = append(errs, FieldError{Field: "bank_name", Message: "required"})
	}
	return errs
}

type pixKeyDTO struct {
	ID             uuid.UUID `json:"id"`
	KeyType        string    `json:"key_type"`
	KeyValue       string    `json:"key_value"`
	HolderName     string    `json:"holder_name"`
	HolderDocument string    `json:"holder_document"`
	BankName       string    `json:"bank_name"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func toPixKeyDTO(k domain.PixKey) pixKeyDTO {
	return pixKeyDTO{
		ID:             k.ID,
		KeyType:        string(k.KeyType),
		KeyValue:       k.KeyValue,
		HolderName:     k.HolderName,
		HolderDocument: k.HolderDocument,
		BankName:       k.BankName,
		Status:         string(k.Status),
		CreatedAt:      k.CreatedAt,
	}
}

func (h *PixKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createPixKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	key, err := h.keys.CreateKey(r.Context(), service.CreatePixKeyRequest{
		AccountID:      accountID,
		KeyType:        domain.PixKeyType(req.KeyType),
		KeyValue:       req.KeyValue,
		HolderName:     req.HolderName,
		HolderDocument: req.HolderDocument,
		BankName:       req.BankName,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toPixKeyDTO(*key))
}

func (h *PixKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	keys, err := h.keys.ListKeys(r.Context(), accountID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]pixKeyDTO, 0, len(keys))
	for _, k := range keys {
		dtos = append(dtos, toPixKeyDTO(k))
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"keys": dtos})
}

func (h *PixKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if err := h.keys.DeleteKey(r.Context(), id, accountID); err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}
