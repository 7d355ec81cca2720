package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: row does not exist
//   - ErrConflict: a unique or foreign key constraint rejected the write
//   - ErrInvalidState: entity is in the wrong state for the operation
//   - ErrUnavailable: backing service is temporarily unavailable
//   - ErrLockHeld: another holder owns the requested lock
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrLockHeld     = errors.New("lock held")
)
