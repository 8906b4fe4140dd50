package settlement

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

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ledgerStub overrides just the methods settlement touches; anything else
// panics via the embedded nil interface.
type ledgerStub struct {
	ledger.Service
	hold       *models.Hold
	settleErr  error
	lastSettle ledger.SettleInput
	settles    int
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

func (s *ledgerStub) Settle(ctx context.Context, input ledger.SettleInput) (*ledger.SettleOutcome, error) {
	if s.settleErr != nil {
		return nil, s.settleErr
	}
	s.settles++
	s.lastSettle = input
	s.hold.Status = models.HoldStatusReleased
	return &ledger.SettleOutcome{Hold: s.hold}, nil
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

func newGuard() idempotency.Service {
	return idempotency.NewService(&recordRepo{records: make(map[string]*models.IdempotencyRecord)}, time.Hour)
}

func testShift() *shifts.Shift {
	return &shifts.Shift{
		ID:               "shift-1",
		CompanyAccountID: 1,
		WorkerAccountID:  2,
		HourlyRate:       dec("15.00"),
		ScheduledHours:   dec("8"),
		ScheduledStart:   time.Now(),
	}
}

func newService(stub *ledgerStub) Service {
	provider := &shifts.StaticProvider{Shifts: map[string]*shifts.Shift{"shift-1": testShift()}}
	return NewService(stub, newGuard(), provider, Config{})
}

func openHold(amount, rate string) *models.Hold {
	return &models.Hold{
		ID:         7,
		WalletID:   1,
		ShiftID:    "shift-1",
		Amount:     dec(amount),
		HourlyRate: dec(rate),
		Status:     models.HoldStatusOpen,
	}
}

func TestSettleShift(t *testing.T) {
	t.Run("full hours settle the whole hold", func(t *testing.T) {
		stub := &ledgerStub{hold: openHold("120.00", "15.00")}
		svc := newService(stub)

		result, _, err := svc.SettleShift(context.Background(), SettleInput{
			ShiftID:        "shift-1",
			ActualHours:    dec("8"),
			IdempotencyKey: "settle-1",
		})
		require.NoError(t, err)

		assert.Equal(t, "120", result["gross"])
		assert.Equal(t, "18", result["fee"])
		assert.Equal(t, "102", result["payout"])
		assert.Equal(t, "0", result["refund"])
		assert.True(t, stub.lastSettle.Fee.Add(stub.lastSettle.Payout).Equal(stub.lastSettle.Gross))
	})

	t.Run("short hours refund the remainder", func(t *testing.T) {
		stub := &ledgerStub{hold: openHold("120.00", "15.00")}
		svc := newService(stub)

		result, _, err := svc.SettleShift(context.Background(), SettleInput{
			ShiftID:        "shift-1",
			ActualHours:    dec("6"),
			IdempotencyKey: "settle-1",
		})
		require.NoError(t, err)

		assert.Equal(t, "90", result["gross"])
		assert.Equal(t, "13.5", result["fee"])
		assert.Equal(t, "76.5", result["payout"])
		assert.Equal(t, "30", result["refund"])
	})

	t.Run("fee rounding never loses a cent", func(t *testing.T) {
		// 3.5h x 14.37 = 50.295 -> gross 50.30 once rounded, fee 7.55
		// (50.30 x 0.15 = 7.5450), payout 42.75 by subtraction.
		stub := &ledgerStub{hold: openHold("114.96", "14.37")}
		svc := newService(stub)

		result, _, err := svc.SettleShift(context.Background(), SettleInput{
			ShiftID:        "shift-1",
			ActualHours:    dec("3.5"),
			IdempotencyKey: "settle-1",
		})
		require.NoError(t, err)

		gross := dec(result["gross"].(string))
		fee := dec(result["fee"].(string))
		payout := dec(result["payout"].(string))
		assert.True(t, fee.Add(payout).Equal(gross), "fee %s + payout %s != gross %s", fee, payout, gross)
		assert.True(t, gross.Equal(dec("50.30")))
	})

	t.Run("gross is capped at the held amount", func(t *testing.T) {
		stub := &ledgerStub{hold: openHold("120.00", "15.00")}
		svc := newService(stub)

		// 10h reported against an 8h reservation.
		result, _, err := svc.SettleShift(context.Background(), SettleInput{
			ShiftID:        "shift-1",
			ActualHours:    dec("10"),
			IdempotencyKey: "settle-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "120", result["gross"])
		assert.Equal(t, "0", result["refund"])
	})

	t.Run("zero hours settle to a full refund", func(t *testing.T) {
		stub := &ledgerStub{hold: openHold("120.00", "15.00")}
		svc := newService(stub)

		result, _, err := svc.SettleShift(context.Background(), SettleInput{
			ShiftID:        "shift-1",
			ActualHours:    dec("0"),
			IdempotencyKey: "settle-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "0", result["gross"])
		assert.Equal(t, "120", result["refund"])
	})

	t.Run("replays instead of settling twice", func(t *testing.T) {
		stub := &ledgerStub{hold: openHold("120.00", "15.00")}
		svc := newService(stub)

		input := SettleInput{ShiftID: "shift-1", ActualHours: dec("8"), IdempotencyKey: "settle-1"}
		first, _, err := svc.SettleShift(context.Background(), input)
		require.NoError(t, err)

		second, replayed, err := svc.SettleShift(context.Background(), input)
		require.NoError(t, err)
		assert.True(t, replayed)
		assert.Equal(t, 1, stub.settles)
		assert.Equal(t, first, second)
	})

	t.Run("a new key against a settled shift fails", func(t *testing.T) {
		stub := &ledgerStub{hold: openHold("120.00", "15.00")}
		svc := newService(stub)

		_, _, err := svc.SettleShift(context.Background(), SettleInput{ShiftID: "shift-1", ActualHours: dec("8"), IdempotencyKey: "settle-1"})
		require.NoError(t, err)

		_, _, err = svc.SettleShift(context.Background(), SettleInput{ShiftID: "shift-1", ActualHours: dec("8"), IdempotencyKey: "settle-2"})
		assert.ErrorIs(t, err, apperrors.ErrAlreadySettled)
	})

	t.Run("unknown shift", func(t *testing.T) {
		svc := newService(&ledgerStub{})
		_, _, err := svc.SettleShift(context.Background(), SettleInput{ShiftID: "shift-9", ActualHours: dec("8"), IdempotencyKey: "settle-1"})
		assert.ErrorIs(t, err, apperrors.ErrHoldNotFound)
	})

	t.Run("negative hours are rejected", func(t *testing.T) {
		svc := newService(&ledgerStub{hold: openHold("120.00", "15.00")})
		_, _, err := svc.SettleShift(context.Background(), SettleInput{ShiftID: "shift-1", ActualHours: dec("-1"), IdempotencyKey: "settle-1"})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}
