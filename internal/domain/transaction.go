package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionReceived Direction = "received"
	DirectionSent     Direction = "sent"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusExpired   TransactionStatus = "expired"
)

// Transaction is one immutable money movement in the ledger. Only Status
// may change after creation, and only pending -> completed or
// pending -> expired.
type Transaction struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Direction            Direction
	Amount               decimal.Decimal
	CounterpartyName     *string
	CounterpartyDocument *string
	ProviderReference    *string
	Description          *string
	Status               TransactionStatus
	CreatedAt            time.Time
}
