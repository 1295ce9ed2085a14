package greeter

import (
	"errors"
	"fmt"
)

// FetchError is the single failure kind for a greeting request. It covers
// transport failures (StatusCode 0, Err set), responses with a non-success
// status code, and responses whose body could not be read whole (StatusCode
// and Err both set).
type FetchError struct {
	StatusCode int
	Status     string
	URL        string
	Err        error
}

func (e *FetchError) Error() string {
	return "greeter: " + e.Reason()
}

// Reason is the human-readable explanation shown to the user. Never empty.
func (e *FetchError) Reason() string {
	if e.StatusCode != 0 && e.Err != nil {
		return "network response was not ok: " + e.Err.Error()
	}
	if e.StatusCode != 0 {
		status := e.Status
		if status == "" {
			status = fmt.Sprintf("%d", e.StatusCode)
		}
		return "network response was not ok: " + status
	}
	if e.Err != nil {
		return "network request failed: " + e.Err.Error()
	}
	return "network request failed"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsStatus returns true if err is a FetchError caused by the given HTTP status.
func IsStatus(err error, code int) bool {
	var e *FetchError
	if errors.As(err, &e) {
		return e.StatusCode == code
	}
	return false
}

// IsTransport returns true if err is a FetchError raised before any response arrived.
func IsTransport(err error) bool {
	var e *FetchError
	if errors.As(err, &e) {
		return e.StatusCode == 0
	}
	return false
}
