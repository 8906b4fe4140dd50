package cancellation

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "shiftpay/internal/errors"
	"shiftpay/internal/models"
	"shiftpay/internal/services/idempotency"
	"shiftpay/internal/services/ledger"
	"shiftpay/internal/services/shifts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerStub struct {
	ledger.Service
	hold        *models.Hold
	lastRelease ledger.ReleaseInput
	releases    int
}

func (s *ledgerStub) GetOpenHoldByShift(ctx context.Context, shiftID string) (*models.Hold, error) {
	if s.hold == nil || s.hold.ShiftID != shiftID {
		return nil, apperrors.ErrHoldNotFound
	}
	if s.hold.Status != models.HoldStatusOpen {
		return nil, apperrors.ErrAlreadySettled
	}
	return s.hold, nil
}

func (s *ledgerStub) GetOrCreateWallet(ctx context.Context, accountID uint, accountType string) (*models.Wallet, error) {
	return &models.Wallet{ID: accountID + 100, AccountID: accountID, AccountType: accountType, Currency: "EUR"}, nil
}

func (s *ledgerStub) Release(ctx context.Context, input ledger.ReleaseInput) (*ledger.ReleaseOutcome, error) {
	s.releases++
	s.lastRelease = input
	s.hold.Status = models.HoldStatusReleased
	return &ledger.ReleaseOutcome{Hold: s.hold}, nil
}

type recordRepo struct {
	records map[string]*models.IdempotencyRecord
	nextID  uint
}

func (f *recordRepo) Claim(record *models.IdempotencyRecord) (bool, *models.IdempotencyRecord, error) {
	k := record.Key + "|" + record.Operation
	if existing, ok := f.records[k]; ok {
		return false, existing, nil
	}
	f.nextID++
	record.ID = f.nextID
	f.records[k] = record
	return true, nil, nil
}

func (f *recordRepo) Complete(id uint, status string, result models.JSON, errorCode, errorMessage string) error {
	for _, r := range f.records {
		if r.ID == id {
			r.Status, r.Result, r.ErrorCode, r.ErrorMessage = status, result, errorCode, errorMessage
			return nil
		}
	}
	return errors.New("record not found")
}

func (f *recordRepo) Get(key, operation string) (*models.IdempotencyRecord, error) {
	return nil, errors.New("record not found")
}

func (f *recordRepo) DeleteExpired(now time.Time) (int64, error) { return 0, nil }

func newCancelService(t *testing.T, stub *ledgerStub, hoursUntilStart time.Duration) Service {
	t.Helper()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	provider := &shifts.StaticProvider{Shifts: map[string]*shifts.Shift{
		"shift-1": {
			ID:               "shift-1",
			CompanyAccountID: 1,
			WorkerAccountID:  2,
			HourlyRate:       dec("15.00"),
			ScheduledHours:   dec("8"),
			ScheduledStart:   now.Add(hoursUntilStart),
		},
	}}
	guard := idempotency.NewService(&recordRepo{records: make(map[string]*models.IdempotencyRecord)}, time.Hour)
	svc := NewService(stub, guard, provider).(*service)
	svc.nowFn = func() time.Time { return now }
	return svc
}

func openHold() *models.Hold {
	return &models.Hold{
		ID:         7,
		WalletID:   1,
		ShiftID:    "shift-1",
		Amount:     dec("120.00"),
		HourlyRate: dec("15.00"),
		Status:     models.HoldStatusOpen,
	}
}

func TestCancelShift(t *testing.T) {
	t.Run("early company cancellation refunds in full", func(t *testing.T) {
		stub := &ledgerStub{hold: openHold()}
		svc := newCancelService(t, stub, 50*time.Hour)

		result, _, err := svc.CancelShift(context.Background(), CancelInput{
			ShiftID:        "shift-1",
			CancelledBy:    CancelledByCompany,
			IdempotencyKey: "cancel-1",
		})
		require.NoError(t, err)

		assert.Equal(t, "120", result["refund"])
		assert.Equal(t, "0", result["compensation"])
		assert.Equal(t, TierFullRefund, result["tier"])
		assert.Zero(t, stub.lastRelease.WorkerWalletID, "no worker wallet needed without compensation")
	})

	t.Run("late company cancellation compensates the worker", func(t *testing.T) {
		stub := &ledgerStub{hold: openHold()}
		svc := newCancelService(t, stub, 10*time.Hour)

		result, _, err := svc.CancelShift(context.Background(), CancelInput{
			ShiftID:        "shift-1",
			CancelledBy:    CancelledByCompany,
			Reason:         "venue closed",
			IdempotencyKey: "cancel-1",
		})
		require.NoError(t, err)

		assert.Equal(t, "90", result["refund"])
		assert.Equal(t, "30", result["compensation"])
		assert.Equal(t, uint(102), stub.lastRelease.WorkerWalletID)
		assert.Equal(t, "venue closed", stub.lastRelease.Reason)
	})

	t.Run("retry replays the stored receipt", func(t *testing.T) {
		stub := &ledgerStub{hold: openHold()}
		svc := newCancelService(t, stub, 30*time.Hour)

		input := CancelInput{ShiftID: "shift-1", CancelledBy: CancelledByWorker, IdempotencyKey: "cancel-1"}
		first, _, err := svc.CancelShift(context.Background(), input)
		require.NoError(t, err)

		second, replayed, err := svc.CancelShift(context.Background(), input)
		require.NoError(t, err)
		assert.True(t, replayed)
		assert.Equal(t, 1, stub.releases)
		assert.Equal(t, first, second)
	})

	t.Run("cancelling a settled shift fails", func(t *testing.T) {
		hold := openHold()
		hold.Status = models.HoldStatusReleased
		svc := newCancelService(t, &ledgerStub{hold: hold}, 30*time.Hour)

		_, _, err := svc.CancelShift(context.Background(), CancelInput{
			ShiftID:        "shift-1",
			CancelledBy:    CancelledByCompany,
			IdempotencyKey: "cancel-1",
		})
		assert.ErrorIs(t, err, apperrors.ErrAlreadySettled)
	})

	t.Run("no reservation for the shift", func(t *testing.T) {
		svc := newCancelService(t, &ledgerStub{}, 30*time.Hour)
		_, _, err := svc.CancelShift(context.Background(), CancelInput{
			ShiftID:        "shift-9",
			CancelledBy:    CancelledByCompany,
			IdempotencyKey: "cancel-1",
		})
		assert.ErrorIs(t, err, apperrors.ErrHoldNotFound)
	})
}
