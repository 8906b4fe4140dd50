// Package cancellation releases a shift's escrow according to how much
// notice was given and who pulled out.
package cancellation

import (
	"context"
	"time"

	apperrors "shiftpay/internal/errors"
	"shiftpay/internal/models"
	"shiftpay/internal/services/idempotency"
	"shiftpay/internal/services/ledger"
	"shiftpay/internal/services/shifts"
)

// Service cancels shifts.
type Service interface {
	CancelShift(ctx context.Context, input CancelInput) (models.JSON, bool, error)
}

// CancelInput cancels a shift with an open reservation.
type CancelInput struct {
	ShiftID        string
	CancelledBy    string
	Reason         string
	IdempotencyKey string
}

// Receipt is the stored, replayable outcome of a cancellation.
type Receipt struct {
	ShiftID      string `json:"shift_id"`
	HoldID       uint   `json:"hold_id"`
	Refund       string `json:"refund"`
	Compensation string `json:"compensation"`
	CancelledBy  string `json:"cancelled_by"`
	Tier         string `json:"tier"`
}

type service struct {
	ledger ledger.Service
	guard  idempotency.Service
	shifts shifts.Provider
	nowFn  func() time.Time
}

// NewService creates the cancellation engine.
func NewService(ledgerSvc ledger.Service, guard idempotency.Service, provider shifts.Provider) Service {
	if ledgerSvc == nil || guard == nil || provider == nil {
		panic("ledger, guard and shift provider are required")
	}
	return &service{
		ledger: ledgerSvc,
		guard:  guard,
		shifts: provider,
		nowFn:  time.Now,
	}
}

func (s *service) CancelShift(ctx context.Context, input CancelInput) (models.JSON, bool, error) {
	if input.ShiftID == "" {
		return nil, false, apperrors.ErrValidation
	}

	return s.guard.RunOnce(ctx, input.IdempotencyKey, idempotency.OperationCancel, func(ctx context.Context) (interface{}, error) {
		hold, err := s.ledger.GetOpenHoldByShift(ctx, input.ShiftID)
		if err != nil {
			return nil, err
		}
		shift, err := s.shifts.GetShift(ctx, input.ShiftID)
		if err != nil {
			return nil, err
		}

		until := shift.ScheduledStart.Sub(s.nowFn())
		decision, err := Decide(until, input.CancelledBy, hold.Amount, hold.HourlyRate)
		if err != nil {
			return nil, err
		}

		var workerWalletID uint
		if decision.Compensation.IsPositive() {
			worker, err := s.ledger.GetOrCreateWallet(ctx, shift.WorkerAccountID, models.AccountTypeStaff)
			if err != nil {
				return nil, err
			}
			workerWalletID = worker.ID
		}

		outcome, err := s.ledger.Release(ctx, ledger.ReleaseInput{
			ShiftID:        input.ShiftID,
			Refund:         decision.Refund,
			Compensation:   decision.Compensation,
			WorkerWalletID: workerWalletID,
			CancelledBy:    input.CancelledBy,
			Reason:         input.Reason,
			IdempotencyKey: input.IdempotencyKey,
		})
		if err != nil {
			return nil, err
		}

		return Receipt{
			ShiftID:      input.ShiftID,
			HoldID:       outcome.Hold.ID,
			Refund:       decision.Refund.String(),
			Compensation: decision.Compensation.String(),
			CancelledBy:  input.CancelledBy,
			Tier:         decision.Tier,
		}, nil
	})
}
