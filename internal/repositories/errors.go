package repositories

import "errors"

// Storage-level errors. Services translate these into domain errors.
var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrHoldNotFound        = errors.New("hold not found")
	ErrHoldNotOpen         = errors.New("hold is not open")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrConfigNotFound      = errors.New("auto top-up config not found")
)
