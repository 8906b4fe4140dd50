package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// ChargeInput pulls money from an external payment method into the platform.
type ChargeInput struct {
	Amount          decimal.Decimal
	Currency        string
	PaymentMethodID string
	IdempotencyKey  string
	Description     string
}

// ChargeResult reports the provider-side reference of a successful charge.
type ChargeResult struct {
	Reference string
	Status    string
}

// PayoutInput pushes money from the platform to an external bank account.
type PayoutInput struct {
	Amount         decimal.Decimal
	Currency       string
	Destination    string
	IdempotencyKey string
	Description    string
}

// PayoutResult reports the provider-side reference of a submitted payout.
type PayoutResult struct {
	Reference string
	Status    string
}

// Gateway is the seam to the external payment provider. Implementations are
// never called inside a database transaction; a charge is confirmed first and
// the ledger credited after.
type Gateway interface {
	Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error)
	Payout(ctx context.Context, input PayoutInput) (*PayoutResult, error)
}
