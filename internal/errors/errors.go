package errors

import "errors"

// Sentinel errors forming the service-level taxonomy. Repository and
// service code wraps these with %w so handlers can classify with
// errors.Is.
var (
	// ErrNotAuthenticated: no identity on a write path. Reads degrade
	// to empty results instead of returning this.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidOperation: structurally invalid request, e.g. a
	// self-targeted like or pass.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrNotFound: referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable: transient storage failure; safe to retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)
