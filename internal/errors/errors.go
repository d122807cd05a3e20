package errors

import (
	"errors"
	"fmt"
)

// Common error types for the bridge
var (
	// Upstream errors
	ErrCommunication = errors.New("communication error") // network failure or timeout
	ErrProtocol      = errors.New("protocol error")      // unexpected response envelope
	ErrClient        = errors.New("client error")        // request could not be built or sent

	// Authentication errors
	ErrAuthentication  = errors.New("authentication error")
	ErrNoRefreshToken  = errors.New("no refresh token available")
	ErrDegraded        = errors.New("account degraded, sign in required")
	ErrInvalidSmsCode  = errors.New("invalid sms code")
	ErrSmsRequestError = errors.New("sms code request failed")

	// Configuration errors, surfaced to the sign-in flow
	ErrConfiguration  = errors.New("configuration error")
	ErrMissingPhone   = fmt.Errorf("%w: phone number is required", ErrConfiguration)
	ErrMissingCountry = fmt.Errorf("%w: country code is required", ErrConfiguration)
	ErrMissingToken   = fmt.Errorf("%w: token is required", ErrConfiguration)

	// General errors
	ErrNotFound   = errors.New("not found")
	ErrNotRunning = errors.New("not running")
)

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// IsRetryable reports whether err is a transient upstream failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCommunication)
}
