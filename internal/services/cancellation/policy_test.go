package cancellation

import (
	"testing"
	"time"

	apperrors "shiftpay/internal/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDecide(t *testing.T) {
	tests := []struct {
		name        string
		until       time.Duration
		cancelledBy string
		holdAmount  string
		hourlyRate  string
		wantRefund  string
		wantComp    string
		wantTier    string
	}{
		{
			name:  "company cancelling 50h out refunds everything",
			until: 50 * time.Hour, cancelledBy: CancelledByCompany,
			holdAmount: "120.00", hourlyRate: "15.00",
			wantRefund: "120.00", wantComp: "0", wantTier: TierFullRefund,
		},
		{
			name:  "worker cancelling 30h out splits the hold",
			until: 30 * time.Hour, cancelledBy: CancelledByWorker,
			holdAmount: "120.00", hourlyRate: "15.00",
			wantRefund: "60.00", wantComp: "60.00", wantTier: TierHalfSplit,
		},
		{
			name:  "company cancelling 30h out splits the hold the same way",
			until: 30 * time.Hour, cancelledBy: CancelledByCompany,
			holdAmount: "120.00", hourlyRate: "15.00",
			wantRefund: "60.00", wantComp: "60.00", wantTier: TierHalfSplit,
		},
		{
			name:  "company cancelling 10h out owes two hours of pay",
			until: 10 * time.Hour, cancelledBy: CancelledByCompany,
			holdAmount: "120.00", hourlyRate: "15.00",
			wantRefund: "90.00", wantComp: "30.00", wantTier: TierLateCancel,
		},
		{
			name:  "platform late cancel is treated like a company one",
			until: 10 * time.Hour, cancelledBy: CancelledByPlatform,
			holdAmount: "120.00", hourlyRate: "15.00",
			wantRefund: "90.00", wantComp: "30.00", wantTier: TierLateCancel,
		},
		{
			name:  "worker cancelling 10h out forfeits compensation",
			until: 10 * time.Hour, cancelledBy: CancelledByWorker,
			holdAmount: "120.00", hourlyRate: "15.00",
			wantRefund: "120.00", wantComp: "0", wantTier: TierLateCancel,
		},
		{
			name:  "two hours of pay is capped at the hold",
			until: 10 * time.Hour, cancelledBy: CancelledByCompany,
			holdAmount: "30.00", hourlyRate: "15.00",
			wantRefund: "0", wantComp: "30.00", wantTier: TierLateCancel,
		},
		{
			name:  "exactly 48h lands in the full refund tier",
			until: 48 * time.Hour, cancelledBy: CancelledByCompany,
			holdAmount: "120.00", hourlyRate: "15.00",
			wantRefund: "120.00", wantComp: "0", wantTier: TierFullRefund,
		},
		{
			name:  "exactly 24h lands in the half split tier",
			until: 24 * time.Hour, cancelledBy: CancelledByCompany,
			holdAmount: "120.00", hourlyRate: "15.00",
			wantRefund: "60.00", wantComp: "60.00", wantTier: TierHalfSplit,
		},
		{
			name:  "a second short of 48h drops to the half split tier",
			until: 48*time.Hour - time.Second, cancelledBy: CancelledByCompany,
			holdAmount: "120.00", hourlyRate: "15.00",
			wantRefund: "60.00", wantComp: "60.00", wantTier: TierHalfSplit,
		},
		{
			name:  "a second short of 24h drops to the late tier",
			until: 24*time.Hour - time.Second, cancelledBy: CancelledByCompany,
			holdAmount: "120.00", hourlyRate: "15.00",
			wantRefund: "90.00", wantComp: "30.00", wantTier: TierLateCancel,
		},
		{
			name:  "after the scheduled start is a late cancel",
			until: -2 * time.Hour, cancelledBy: CancelledByCompany,
			holdAmount: "120.00", hourlyRate: "15.00",
			wantRefund: "90.00", wantComp: "30.00", wantTier: TierLateCancel,
		},
		{
			name:  "odd hold amounts split to the cent",
			until: 30 * time.Hour, cancelledBy: CancelledByWorker,
			holdAmount: "99.99", hourlyRate: "11.11",
			wantRefund: "49.99", wantComp: "50.00", wantTier: TierHalfSplit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(tt.until, tt.cancelledBy, dec(tt.holdAmount), dec(tt.hourlyRate))
			require.NoError(t, err)

			assert.True(t, got.Refund.Equal(dec(tt.wantRefund)), "refund %s, want %s", got.Refund, tt.wantRefund)
			assert.True(t, got.Compensation.Equal(dec(tt.wantComp)), "compensation %s, want %s", got.Compensation, tt.wantComp)
			assert.Equal(t, tt.wantTier, got.Tier)
			assert.True(t, got.Refund.Add(got.Compensation).Equal(dec(tt.holdAmount)),
				"refund + compensation must equal the hold amount")
		})
	}

	t.Run("unknown actor is rejected", func(t *testing.T) {
		_, err := Decide(30*time.Hour, "accountant", dec("120.00"), dec("15.00"))
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}
