package validation

import (
	"shiftpay/internal/errors"
	"shiftpay/internal/models"

	"github.com/shopspring/decimal"
)

const (
	// MaxIdempotencyKeyLength bounds stored keys.
	MaxIdempotencyKeyLength = 255

	// MaxAmountScale is the finest money granularity accepted on input.
	MaxAmountScale = 4
)

// MaxTransactionAmount caps a single funding operation.
var MaxTransactionAmount = decimal.NewFromInt(1_000_000)

// ValidateAccountType checks that the account type can own a wallet.
func ValidateAccountType(accountType string) error {
	switch accountType {
	case models.AccountTypeCompany, models.AccountTypeStaff, models.AccountTypeAgency, models.AccountTypePlatform:
		return nil
	}
	return &errors.DomainError{
		Code:    "VALIDATION_ERROR",
		Message: "unknown account type: " + accountType,
	}
}

// ParseAmount parses a positive decimal amount from its string form. Amounts
// travel as strings end to end; floats never touch money.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &errors.DomainError{
			Code:    "VALIDATION_ERROR",
			Message: "amount is not a valid decimal: " + raw,
		}
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, &errors.DomainError{
			Code:    "VALIDATION_ERROR",
			Message: "amount must be positive",
		}
	}
	if amount.GreaterThan(MaxTransactionAmount) {
		return decimal.Zero, &errors.DomainError{
			Code:    "VALIDATION_ERROR",
			Message: "amount exceeds the allowed maximum",
		}
	}
	if amount.Exponent() < -MaxAmountScale {
		return decimal.Zero, &errors.DomainError{
			Code:    "VALIDATION_ERROR",
			Message: "amount has too many decimal places",
		}
	}
	return amount, nil
}

// ParseHours parses a non-negative hour count, e.g. reported shift hours.
func ParseHours(raw string) (decimal.Decimal, error) {
	hours, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &errors.DomainError{
			Code:    "VALIDATION_ERROR",
			Message: "hours is not a valid decimal: " + raw,
		}
	}
	if hours.IsNegative() {
		return decimal.Zero, &errors.DomainError{
			Code:    "VALIDATION_ERROR",
			Message: "hours must not be negative",
		}
	}
	return hours, nil
}

// ValidateIdempotencyKey checks a client-supplied key is usable.
func ValidateIdempotencyKey(key string) error {
	if key == "" {
		return &errors.DomainError{
			Code:    "VALIDATION_ERROR",
			Message: "Idempotency-Key header is required",
		}
	}
	if len(key) > MaxIdempotencyKeyLength {
		return &errors.DomainError{
			Code:    "VALIDATION_ERROR",
			Message: "Idempotency-Key is too long",
		}
	}
	return nil
}
