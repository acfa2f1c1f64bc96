package domain

import "errors"

// Validation errors are raised before any I/O.
var (
	ErrInvalidInput = errors.New("invalid input")
)

// Lookup errors.
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrListingNotFound = errors.New("listing not found")
	ErrUserNotFound    = errors.New("user not found")
)

// State conflicts: the request is well-formed but the current lifecycle state forbids it.
var (
	ErrAuctionNotActive   = errors.New("auction is not active")
	ErrAuctionEnded       = errors.New("auction has already ended")
	ErrAuctionNotEnded    = errors.New("auction has not ended")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrListingNotActive   = errors.New("listing is not active")
	ErrSyncAlreadyRunning = errors.New("sync service already running")
	ErrSyncNotRunning     = errors.New("sync service not running")
)

// IsStateConflict reports whether err is a lifecycle violation rather than a bad request or an outage.
func IsStateConflict(err error) bool {
	for _, target := range []error{
		ErrAuctionNotActive, ErrAuctionEnded, ErrAuctionNotEnded, ErrInvalidTransition,
		ErrListingNotActive, ErrSyncAlreadyRunning, ErrSyncNotRunning,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is one of the lookup errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAuctionNotFound) || errors.Is(err, ErrListingNotFound) || errors.Is(err, ErrUserNotFound)
}
