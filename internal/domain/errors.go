package domain

import "errors"

// Sentinel errors shared across services. Controllers map these to HTTP
// status codes; repositories translate driver errors into them.
var (
	// ErrNotFound means the referenced event, user, category, or request does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller lacks the required relationship (not initiator, not requester).
	ErrForbidden = errors.New("forbidden")
	// ErrConflict means a business rule was violated: duplicate request, capacity
	// exhausted, invalid state transition, request not in the expected status.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput means a malformed argument: bad date range, event date too soon.
	ErrInvalidInput = errors.New("invalid input")
)
