package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// ErrQuotaExceeded is the normal "denied" outcome of the usage
	// limiter, not a storage failure.
	ErrQuotaExceeded = errors.New("daily search quota exceeded")

	// ErrNoData means the market-data provider returned nothing usable
	// for the requested ticker.
	ErrNoData = errors.New("not enough data")

	// ErrSetupComplete guards the first-run bootstrap endpoint once a
	// user exists.
	ErrSetupComplete = errors.New("setup already completed")
)
