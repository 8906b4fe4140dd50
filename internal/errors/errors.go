// Package errors defines the typed domain errors shared across services.
// Every ledger-facing operation fails with one of these; handlers map the
// codes onto HTTP statuses so there is no silent default path.
package errors

// DomainError is a typed error with a stable machine-readable code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches two DomainErrors by code, so an error reconstructed from a
// stored idempotency record still satisfies errors.Is against the sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// FromCode rebuilds the sentinel for a stored code, or a generic DomainError
// when the code is unknown.
func FromCode(code, message string) *DomainError {
	for _, known := range registry {
		if known.Code == code {
			return known
		}
	}
	return &DomainError{Code: code, Message: message}
}

// CodeOf extracts the domain code from an error chain, or empty.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if de, ok := err.(*DomainError); ok {
		return de.Code
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return CodeOf(u.Unwrap())
	}
	return ""
}

var registry = []*DomainError{
	ErrInsufficientFunds,
	ErrAlreadyReserved,
	ErrAlreadySettled,
	ErrHoldNotFound,
	ErrConflict,
	ErrGatewayFailure,
	ErrValidation,
	ErrWalletNotFound,
	ErrShiftNotFound,
}
