package entrypoint

import (
	"errors"
	"fmt"
)

// Failure codes reported when an operation is rejected during prepayment
// validation. The numbering follows the account-abstraction standard so
// submitters can triage rejections uniformly across implementations.
const (
	codeAccountNotDeployed = "AA20 account not deployed"
	codeDidNotPayPrefund   = "AA21 didn't pay prefund"
	codeValidationReverted = "AA23 reverted"
	codeSignatureError     = "AA24 signature error"
	codeInvalidNonce       = "AA25 invalid account nonce"
	codeInvalidBeneficiary = "AA90 invalid beneficiary"
)

var ErrReentrantCall = errors.New("aggregation already in progress")

// FailedOpError rejects a whole batch, identifying the first offending
// operation and the standard failure code.
type FailedOpError struct {
	OpIndex int
	Reason  string
}

func (e *FailedOpError) Error() string {
	return fmt.Sprintf("operation %d rejected: %s", e.OpIndex, e.Reason)
}

func failedOp(index int, reason string) error {
	return &FailedOpError{OpIndex: index, Reason: reason}
}
