package models

import "errors"

// Error taxonomy of the order lifecycle engine. Every operation reports its
// failure as one of these kinds so the HTTP layer can map them to responses.
var (
	// ErrInvalidReference marks an unknown branch, table, menu item, variant
	// or modifier, or a reference that crosses branches.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrIllegalTransition marks a status or payment transition not permitted
	// from the order's current state.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrCodeGenerationExhausted marks a failure to establish a unique order
	// code within the bounded retry budget.
	ErrCodeGenerationExhausted = errors.New("order code generation exhausted")

	// ErrValidation marks a malformed request (empty line list, non-positive
	// quantity and similar).
	ErrValidation = errors.New("validation failed")

	// ErrOrderNotFound marks a lookup for an order id or code that does not exist.
	ErrOrderNotFound = errors.New("order not found")
)
