package vm

import "errors"

// List of execution errors surfaced by the runtime. Contract-level failures
// wrap one of these so callers can branch on the class of failure.
var (
	ErrExecutionReverted   = errors.New("execution reverted")
	ErrInsufficientBalance = errors.New("insufficient balance for transfer")
	ErrMaxCallDepth        = errors.New("max call depth exceeded")
)
