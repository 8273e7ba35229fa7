package domain

import (
	"time"

	"github.com/google/uuid"
)

type PixKeyType string

const (
	PixKeyTypeCPF    PixKeyType = "cpf"
	PixKeyTypeCNPJ   PixKeyType = "cnpj"
	PixKeyTypeEmail  PixKeyType = "email"
	PixKeyTypePhone  PixKeyType = "phone"
	PixKeyTypeRandom PixKeyType = "random"
)

type PixKeyStatus string

const (
	PixKeyStatusActive   PixKeyStatus = "active"
	PixKeyStatusInactive PixKeyStatus = "inactive"
)

type PixKey struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	KeyType        PixKeyType
	KeyValue       string
	HolderName     string
	HolderDocument string
	BankName       string
	Status         PixKeyStatus
	CreatedAt      time.Time
}
