package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the core components.
// Failures are wrapped with fmt.Errorf("...: %w", Err...) so callers can
// classify them with errors.Is.
var (
	// ErrPersistence marks a storage read or write failure
	ErrPersistence = errors.New("persistence failure")

	// ErrConsistency marks drift between the ledger cash and the character wealth
	ErrConsistency = errors.New("cash consistency mismatch")

	// ErrCalculation marks a non-finite or missing numeric input absorbed as zero
	ErrCalculation = errors.New("invalid numeric input")

	// ErrResetVerification marks residual state found after a reset
	ErrResetVerification = errors.New("reset verification failed")

	// ErrLookupMiss marks an asset id that matched no category
	ErrLookupMiss = errors.New("asset not found")

	// ErrNotFound is returned by key-value stores when a key is absent
	ErrNotFound = errors.New("key not found")

	// ErrInvalidRecord rejects a record that cannot be stored
	ErrInvalidRecord = errors.New("invalid asset record")

	// ErrInvalidField rejects a patch field that does not apply to the category
	ErrInvalidField = errors.New("field does not apply to category")
)

// ResidualState reports a storage key or collection that still holds entries after a reset
func ResidualState(what string, n int) error {
	return fmt.Errorf("%w: %s still holds %d entries", ErrResetVerification, what, n)
}
