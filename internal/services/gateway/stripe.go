package gateway

import (
	"context"
	"fmt"
	"strings"

	apperrors "shiftpay/internal/errors"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"
	"github.com/stripe/stripe-go/v72/payout"
)

type stripeGateway struct{}

// NewStripeGateway creates a Gateway backed by Stripe. The caller must set
// stripe.Key before use.
func NewStripeGateway(secretKey string) Gateway {
	stripe.Key = secretKey
	return &stripeGateway{}
}

func (g *stripeGateway) Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toMinorUnits(input.Amount)),
		Currency:      stripe.String(strings.ToLower(input.Currency)),
		PaymentMethod: stripe.String(input.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
		Description:   stripe.String(input.Description),
	}
	params.Context = ctx
	if input.IdempotencyKey != "" {
		params.SetIdempotencyKey(input.IdempotencyKey)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrGatewayFailure, err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: charge not completed, status %s", apperrors.ErrGatewayFailure, intent.Status)
	}
	return &ChargeResult{Reference: intent.ID, Status: string(intent.Status)}, nil
}

func (g *stripeGateway) Payout(ctx context.Context, input PayoutInput) (*PayoutResult, error) {
	params := &stripe.PayoutParams{
		Amount:      stripe.Int64(toMinorUnits(input.Amount)),
		Currency:    stripe.String(strings.ToLower(input.Currency)),
		Destination: stripe.String(input.Destination),
		Description: stripe.String(input.Description),
	}
	params.Context = ctx
	if input.IdempotencyKey != "" {
		params.SetIdempotencyKey(input.IdempotencyKey)
	}

	p, err := payout.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrGatewayFailure, err)
	}
	return &PayoutResult{Reference: p.ID, Status: string(p.Status)}, nil
}

// toMinorUnits converts a decimal major-unit amount to the provider's integer
// minor units (cents).
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
