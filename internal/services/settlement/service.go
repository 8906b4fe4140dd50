// Package settlement turns a finished shift's reported hours into the final
// money split: platform fee, worker payout and the refund of whatever part
// of the reservation went unused.
package settlement

import (
	"context"

	apperrors "shiftpay/internal/errors"
	"shiftpay/internal/models"
	"shiftpay/internal/services/idempotency"
	"shiftpay/internal/services/ledger"
	"shiftpay/internal/services/shifts"

	"github.com/shopspring/decimal"
)

// DefaultFeeRate is the platform's cut of the gross shift value.
var DefaultFeeRate = decimal.NewFromFloat(0.15)

// Service settles shifts.
type Service interface {
	SettleShift(ctx context.Context, input SettleInput) (models.JSON, bool, error)
}

// Config holds settlement settings.
type Config struct {
	FeeRate           decimal.Decimal
	PlatformAccountID uint
}

type service struct {
	ledger ledger.Service
	guard  idempotency.Service
	shifts shifts.Provider
	config Config
}

// NewService creates the settlement engine.
func NewService(ledgerSvc ledger.Service, guard idempotency.Service, provider shifts.Provider, config Config) Service {
	if ledgerSvc == nil || guard == nil || provider == nil {
		panic("ledger, guard and shift provider are required")
	}
	if config.FeeRate.IsZero() {
		config.FeeRate = DefaultFeeRate
	}
	if config.PlatformAccountID == 0 {
		config.PlatformAccountID = 1
	}
	return &service{
		ledger: ledgerSvc,
		guard:  guard,
		shifts: provider,
		config: config,
	}
}

// SettleShift computes gross pay from the reported hours, splits it into fee
// and payout and releases the hold. Gross is capped at the held amount so a
// shift that ran long can never settle for more than was reserved.
func (s *service) SettleShift(ctx context.Context, input SettleInput) (models.JSON, bool, error) {
	if input.ShiftID == "" || input.ActualHours.IsNegative() {
		return nil, false, apperrors.ErrValidation
	}

	return s.guard.RunOnce(ctx, input.IdempotencyKey, idempotency.OperationSettle, func(ctx context.Context) (interface{}, error) {
		hold, err := s.ledger.GetOpenHoldByShift(ctx, input.ShiftID)
		if err != nil {
			return nil, err
		}

		shift, err := s.shifts.GetShift(ctx, input.ShiftID)
		if err != nil {
			return nil, err
		}

		gross := input.ActualHours.Mul(hold.HourlyRate).Round(2)
		if gross.GreaterThan(hold.Amount) {
			gross = hold.Amount
		}
		fee, payout := s.split(gross)

		worker, err := s.ledger.GetOrCreateWallet(ctx, shift.WorkerAccountID, models.AccountTypeStaff)
		if err != nil {
			return nil, err
		}
		platform, err := s.ledger.GetOrCreateWallet(ctx, s.config.PlatformAccountID, models.AccountTypePlatform)
		if err != nil {
			return nil, err
		}

		outcome, err := s.ledger.Settle(ctx, ledger.SettleInput{
			ShiftID:          input.ShiftID,
			Gross:            gross,
			Fee:              fee,
			Payout:           payout,
			WorkerWalletID:   worker.ID,
			PlatformWalletID: platform.ID,
			IdempotencyKey:   input.IdempotencyKey,
		})
		if err != nil {
			return nil, err
		}

		return Receipt{
			ShiftID: input.ShiftID,
			HoldID:  outcome.Hold.ID,
			Gross:   gross.String(),
			Fee:     fee.String(),
			Payout:  payout.String(),
			Refund:  hold.Amount.Sub(gross).String(),
		}, nil
	})
}

// split takes the fee off gross. The payout is the exact remainder, so fee
// plus payout always reproduces gross to the cent.
func (s *service) split(gross decimal.Decimal) (fee, payout decimal.Decimal) {
	fee = gross.Mul(s.config.FeeRate).Round(2)
	payout = gross.Sub(fee)
	return fee, payout
}
