package escrow

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

type ledgerStub struct {
	ledger.Service
	available   decimal.Decimal
	reserveErr  error
	lastReserve ledger.ReserveInput
	reserves    int
}

func (s *ledgerStub) GetOrCreateWallet(ctx context.Context, accountID uint, accountType string) (*models.Wallet, error) {
	return &models.Wallet{ID: 11, AccountID: accountID, AccountType: accountType, Currency: "EUR"}, nil
}

func (s *ledgerStub) Reserve(ctx context.Context, input ledger.ReserveInput) (*ledger.ReserveOutcome, error) {
	if s.reserveErr != nil {
		return nil, s.reserveErr
	}
	s.reserves++
	s.lastReserve = input
	return &ledger.ReserveOutcome{
		Hold: &models.Hold{
			ID:         7,
			WalletID:   input.WalletID,
			ShiftID:    input.ShiftID,
			Amount:     input.Amount,
			HourlyRate: input.HourlyRate,
			Status:     models.HoldStatusOpen,
			ExpiresAt:  input.ExpiresAt,
		},
		PendingTransaction: &models.Transaction{ID: 42},
		Balance: ledger.Balance{
			Available: s.available.Sub(input.Amount),
			Reserved:  input.Amount,
			Total:     s.available,
			Currency:  "EUR",
		},
	}, nil
}

type triggerSpy struct {
	calls     int
	available decimal.Decimal
	txnID     uint
}

func (s *triggerSpy) AfterDebit(ctx context.Context, accountID uint, accountType string, available decimal.Decimal, triggerTxnID uint) {
	s.calls++
	s.available = available
	s.txnID = triggerTxnID
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

func newEscrowService(stub *ledgerStub, spy *triggerSpy) Service {
	provider := &shifts.StaticProvider{Shifts: map[string]*shifts.Shift{
		"shift-1": {
			ID:               "shift-1",
			CompanyAccountID: 1,
			WorkerAccountID:  2,
			HourlyRate:       dec("15.00"),
			ScheduledHours:   dec("8"),
			ScheduledStart:   time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC),
		},
	}}
	guard := idempotency.NewService(&recordRepo{records: make(map[string]*models.IdempotencyRecord)}, time.Hour)
	return NewService(stub, guard, provider, spy, Config{HoldGrace: 72 * time.Hour})
}

func TestReserveFunds(t *testing.T) {
	t.Run("reserves scheduled hours times rate", func(t *testing.T) {
		stub := &ledgerStub{available: dec("500.00")}
		spy := &triggerSpy{}
		svc := newEscrowService(stub, spy)

		result, replayed, err := svc.ReserveFunds(context.Background(), ReserveInput{
			ShiftID:        "shift-1",
			IdempotencyKey: "reserve-1",
		})
		require.NoError(t, err)
		assert.False(t, replayed)

		assert.True(t, stub.lastReserve.Amount.Equal(dec("120.00")))
		assert.Equal(t, "shift-1", stub.lastReserve.ShiftID)
		assert.Equal(t, time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC), stub.lastReserve.ExpiresAt)
		assert.Equal(t, "120", result["amount"])
		assert.Equal(t, "380", result["available"])
	})

	t.Run("checks the auto top-up trigger after the debit", func(t *testing.T) {
		stub := &ledgerStub{available: dec("500.00")}
		spy := &triggerSpy{}
		svc := newEscrowService(stub, spy)

		_, _, err := svc.ReserveFunds(context.Background(), ReserveInput{ShiftID: "shift-1", IdempotencyKey: "reserve-1"})
		require.NoError(t, err)

		assert.Equal(t, 1, spy.calls)
		assert.True(t, spy.available.Equal(dec("380.00")))
		assert.Equal(t, uint(42), spy.txnID, "trigger key derives from the pending transaction")
	})

	t.Run("retry replays without reserving twice", func(t *testing.T) {
		stub := &ledgerStub{available: dec("500.00")}
		spy := &triggerSpy{}
		svc := newEscrowService(stub, spy)

		input := ReserveInput{ShiftID: "shift-1", IdempotencyKey: "reserve-1"}
		first, _, err := svc.ReserveFunds(context.Background(), input)
		require.NoError(t, err)

		second, replayed, err := svc.ReserveFunds(context.Background(), input)
		require.NoError(t, err)
		assert.True(t, replayed)
		assert.Equal(t, 1, stub.reserves)
		assert.Equal(t, 1, spy.calls, "trigger must not re-fire on replay")
		assert.Equal(t, first, second)
	})

	t.Run("insufficient funds surfaces and replays as the same error", func(t *testing.T) {
		stub := &ledgerStub{available: dec("10.00"), reserveErr: apperrors.ErrInsufficientFunds}
		svc := newEscrowService(stub, &triggerSpy{})

		input := ReserveInput{ShiftID: "shift-1", IdempotencyKey: "reserve-1"}
		_, _, err := svc.ReserveFunds(context.Background(), input)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

		_, replayed, err := svc.ReserveFunds(context.Background(), input)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
		assert.True(t, replayed)
	})

	t.Run("unknown shift", func(t *testing.T) {
		svc := newEscrowService(&ledgerStub{available: dec("500.00")}, &triggerSpy{})
		_, _, err := svc.ReserveFunds(context.Background(), ReserveInput{ShiftID: "shift-9", IdempotencyKey: "reserve-1"})
		assert.ErrorIs(t, err, apperrors.ErrShiftNotFound)
	})

	t.Run("missing shift id", func(t *testing.T) {
		svc := newEscrowService(&ledgerStub{}, &triggerSpy{})
		_, _, err := svc.ReserveFunds(context.Background(), ReserveInput{IdempotencyKey: "reserve-1"})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}
