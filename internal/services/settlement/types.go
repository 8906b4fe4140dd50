package settlement

import (
	"github.com/shopspring/decimal"
)

// SettleInput settles a finished shift from its reported actual hours.
type SettleInput struct {
	ShiftID        string
	ActualHours    decimal.Decimal
	IdempotencyKey string
}

// Receipt is the stored, replayable outcome of a settlement.
type Receipt struct {
	ShiftID string `json:"shift_id"`
	HoldID  uint   `json:"hold_id"`
	Gross   string `json:"gross"`
	Fee     string `json:"fee"`
	Payout  string `json:"payout"`
	Refund  string `json:"refund"`
}
