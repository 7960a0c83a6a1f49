package types

import "errors"

// Request and domain errors. The HTTP layer maps ErrInvalidInput and
// ErrInvalidRange to client errors and everything else to server errors.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidRange    = errors.New("invalid word range")
	ErrStorageFailure  = errors.New("storage failure")
	ErrMalformedLedger = errors.New("stored link list is malformed")
	ErrNotFound        = errors.New("entity not found")
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Table operation errors.
var (
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidName   = errors.New("invalid name")
	ErrInvalidFilter = errors.New("invalid filter value type")
	ErrNoChanges     = errors.New("no update data provided")
)
