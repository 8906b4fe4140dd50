package cancellation

import (
	"time"

	apperrors "shiftpay/internal/errors"

	"github.com/shopspring/decimal"
)

// Actors that can cancel a shift.
const (
	CancelledByCompany  = "company"
	CancelledByWorker   = "worker"
	CancelledByPlatform = "platform"
)

// Policy tiers, reported on the receipt.
const (
	TierFullRefund = "full_refund"
	TierHalfSplit  = "half_split"
	TierLateCancel = "late_cancel"
)

var two = decimal.NewFromInt(2)

// Decision is how a released hold splits between the company refund and the
// worker compensation. The two always sum to the hold amount.
type Decision struct {
	Refund       decimal.Decimal
	Compensation decimal.Decimal
	Tier         string
}

// Decide applies the cancellation policy. until is the time from the
// cancellation to the scheduled start; past starts come in negative and land
// in the late tier. The banding compares durations directly, so the 24h and
// 48h edges are exact.
//
// At 48 hours or more notice nobody is out of pocket. Between 24 and 48
// hours the hold splits evenly no matter who cancels. Inside 24 hours a
// company or platform cancellation owes the worker two hours of pay, capped
// at the hold, while a worker cancelling that late forfeits any claim.
func Decide(until time.Duration, cancelledBy string, holdAmount, hourlyRate decimal.Decimal) (Decision, error) {
	switch cancelledBy {
	case CancelledByCompany, CancelledByWorker, CancelledByPlatform:
	default:
		return Decision{}, apperrors.ErrValidation
	}

	switch {
	case until >= 48*time.Hour:
		return Decision{Refund: holdAmount, Compensation: decimal.Zero, Tier: TierFullRefund}, nil

	case until >= 24*time.Hour:
		comp := holdAmount.Div(two).Round(2)
		return Decision{Refund: holdAmount.Sub(comp), Compensation: comp, Tier: TierHalfSplit}, nil

	case cancelledBy == CancelledByWorker:
		// A worker bailing inside 24 hours gets nothing.
		return Decision{Refund: holdAmount, Compensation: decimal.Zero, Tier: TierLateCancel}, nil

	default:
		comp := hourlyRate.Mul(two).Round(2)
		if comp.GreaterThan(holdAmount) {
			comp = holdAmount
		}
		return Decision{Refund: holdAmount.Sub(comp), Compensation: comp, Tier: TierLateCancel}, nil
	}
}
