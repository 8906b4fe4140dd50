// Package escrow reserves the full scheduled cost of a shift on the company
// wallet before the shift is confirmed, so settlement can never bounce.
package escrow

import (
	"context"
	"time"

	apperrors "shiftpay/internal/errors"
	"shiftpay/internal/models"
	"shiftpay/internal/services/idempotency"
	"shiftpay/internal/services/ledger"
	"shiftpay/internal/services/shifts"
	"shiftpay/internal/services/topup"

	"github.com/shopspring/decimal"
)

// Service reserves shift funds.
type Service interface {
	ReserveFunds(ctx context.Context, input ReserveInput) (models.JSON, bool, error)
}

// Config holds escrow settings.
type Config struct {
	// HoldGrace is how long after the scheduled start a hold stays open
	// before the expiry sweep may reclaim it.
	HoldGrace time.Duration
}

type service struct {
	ledger  ledger.Service
	guard   idempotency.Service
	shifts  shifts.Provider
	trigger topup.Trigger
	config  Config
}

// NewService creates the escrow service.
func NewService(ledgerSvc ledger.Service, guard idempotency.Service, provider shifts.Provider, trigger topup.Trigger, config Config) Service {
	if ledgerSvc == nil || guard == nil || provider == nil {
		panic("ledger, guard and shift provider are required")
	}
	if trigger == nil {
		trigger = topup.NoopTrigger{}
	}
	if config.HoldGrace <= 0 {
		config.HoldGrace = 72 * time.Hour
	}
	return &service{
		ledger:  ledgerSvc,
		guard:   guard,
		shifts:  provider,
		trigger: trigger,
		config:  config,
	}
}

// ReserveFunds holds scheduled hours times hourly rate on the company wallet.
// The reservation and its trigger check run once per idempotency key.
func (s *service) ReserveFunds(ctx context.Context, input ReserveInput) (models.JSON, bool, error) {
	if input.ShiftID == "" {
		return nil, false, apperrors.ErrValidation
	}

	return s.guard.RunOnce(ctx, input.IdempotencyKey, idempotency.OperationReserve, func(ctx context.Context) (interface{}, error) {
		shift, err := s.shifts.GetShift(ctx, input.ShiftID)
		if err != nil {
			return nil, err
		}
		amount := shift.Cost()
		if amount.LessThanOrEqual(decimal.Zero) {
			return nil, apperrors.ErrValidation
		}

		wallet, err := s.ledger.GetOrCreateWallet(ctx, shift.CompanyAccountID, models.AccountTypeCompany)
		if err != nil {
			return nil, err
		}

		outcome, err := s.ledger.Reserve(ctx, ledger.ReserveInput{
			WalletID:       wallet.ID,
			ShiftID:        shift.ID,
			Amount:         amount,
			HourlyRate:     shift.HourlyRate,
			ExpiresAt:      shift.ScheduledStart.Add(s.config.HoldGrace),
			IdempotencyKey: input.IdempotencyKey,
		})
		if err != nil {
			return nil, err
		}

		// Reserving spends available funds, so it can push the wallet under
		// its auto top-up threshold.
		s.trigger.AfterDebit(ctx, wallet.AccountID, wallet.AccountType, outcome.Balance.Available, outcome.PendingTransaction.ID)

		return receiptOf(outcome), nil
	})
}
