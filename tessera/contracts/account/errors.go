package account

import "errors"

// Fatal error conditions of the account surface. Validation outcomes are not
// errors; they are status codes returned to the trusted intermediary (see
// ValidationSuccess / SigValidationFailed).
var (
	// authorization: wrong immediate caller at a gate
	ErrNotFromTrustedCaller        = errors.New("caller is not the trusted intermediary")
	ErrNotFromTrustedCallerOrOwner = errors.New("caller is neither the trusted intermediary nor the owner")
	ErrNotFromOwner                = errors.New("caller is not the owner")

	// funding
	ErrNonPositiveRequiredFunds = errors.New("required prefund must be positive")
	ErrTransferFailed           = errors.New("prefund transfer failed")
	ErrInsufficientBalance      = errors.New("account balance cannot cover fees and value")

	// execution
	ErrExecutionFailed = errors.New("target call failed")

	// inline validation on the unauthenticated entry point
	ErrInvalidSignature = errors.New("invalid signature")

	// replay protection outside the aggregation flow
	ErrNoAccountSequencer = errors.New("account-side nonce consumption is not available in the aggregation model")

	ErrZeroOwner = errors.New("new owner is the zero address")
)
