package escrow

import (
	"time"

	"shiftpay/internal/services/ledger"
)

// ReserveInput asks for the full scheduled cost of a shift to be held on the
// company wallet.
type ReserveInput struct {
	ShiftID        string
	IdempotencyKey string
}

// ReserveReceipt is the stored, replayable outcome of a reservation.
type ReserveReceipt struct {
	HoldID    uint      `json:"hold_id"`
	ShiftID   string    `json:"shift_id"`
	Amount    string    `json:"amount"`
	ExpiresAt time.Time `json:"expires_at"`
	Available string    `json:"available"`
	Reserved  string    `json:"reserved"`
	Total     string    `json:"total"`
	Currency  string    `json:"currency"`
}

func receiptOf(outcome *ledger.ReserveOutcome) ReserveReceipt {
	return ReserveReceipt{
		HoldID:    outcome.Hold.ID,
		ShiftID:   outcome.Hold.ShiftID,
		Amount:    outcome.Hold.Amount.String(),
		ExpiresAt: outcome.Hold.ExpiresAt,
		Available: outcome.Balance.Available.String(),
		Reserved:  outcome.Balance.Reserved.String(),
		Total:     outcome.Balance.Total.String(),
		Currency:  outcome.Balance.Currency,
	}
}
