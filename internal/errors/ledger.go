package errors

var (
	ErrInsufficientFunds = &DomainError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: "insufficient available funds",
	}
	ErrAlreadyReserved = &DomainError{
		Code:    "ALREADY_RESERVED",
		Message: "an open hold already exists for this shift",
	}
	ErrAlreadySettled = &DomainError{
		Code:    "ALREADY_SETTLED",
		Message: "hold has already been settled or cancelled",
	}
	ErrHoldNotFound = &DomainError{
		Code:    "HOLD_NOT_FOUND",
		Message: "no open hold exists for this shift",
	}
	ErrConflict = &DomainError{
		Code:    "CONFLICT",
		Message: "a request with this idempotency key is still in flight",
	}
	ErrGatewayFailure = &DomainError{
		Code:    "GATEWAY_FAILURE",
		Message: "payment gateway rejected the request",
	}
	ErrValidation = &DomainError{
		Code:    "VALIDATION_ERROR",
		Message: "invalid request",
	}
	ErrWalletNotFound = &DomainError{
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
	}
	ErrShiftNotFound = &DomainError{
		Code:    "SHIFT_NOT_FOUND",
		Message: "shift not found",
	}
)
