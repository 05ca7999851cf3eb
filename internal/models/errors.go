package models

import "fmt"

// ValidationError reports malformed local input (phone, passcode, vehicle
// digits). It is corrected at the surface where it occurred and never
// reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PasscodeError means the passcode gate is unresolved or the submitted
// code was rejected; the caller re-enters the prompt.
type PasscodeError struct {
	Message string
}

func (e *PasscodeError) Error() string { return e.Message }

// NotFoundError means the record is absent or the passcode did not match.
// For passcode-shaped failures (400/404 from retrieval) the session cache
// entry is evicted.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ServerError is any other non-2xx outcome from the record service.
// The cached passcode is left intact so a generic failure does not force
// the user back through the prompt.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// NetworkError is a transport-level failure on any fetch. Never retried
// automatically; the user re-triggers the flow.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// GeolocationError covers denied/unsupported/timed-out position requests.
// Non-fatal: the workflow degrades to the locale-derived country.
type GeolocationError struct {
	Reason string
}

func (e *GeolocationError) Error() string { return "geolocation unavailable: " + e.Reason }

// RateLimitError means a dispatch was attempted inside the cool-down
// window. The user's input is preserved.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("please wait %d seconds before sending again", e.RetryAfterSeconds)
}
