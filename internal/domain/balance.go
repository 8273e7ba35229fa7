package domain

import "github.com/shopspring/decimal"

// Balance is derived from the transaction log on every read; it is never
// stored. All fields are rounded to two decimal places.
type Balance struct {
	Available     decimal.Decimal
	TotalReceived decimal.Decimal
	TotalSent     decimal.Decimal
	TotalFees     decimal.Decimal
	FeeCount      int64
	PendingCount  int64
}
