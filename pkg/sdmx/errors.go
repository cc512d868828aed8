package sdmx

import "fmt"

// RemoteError is the single error type produced by the client for any
// failure talking to the ABS API: transport errors, timeouts, and non-2xx
// responses all normalize to it. StatusCode is zero when no HTTP response
// was received.
type RemoteError struct {
	// Message describes the failure
	Message string

	// StatusCode is the HTTP status code, if a response was received
	StatusCode int

	// Status is the HTTP status text, if a response was received
	Status string

	// URL is the request URL that failed
	URL string

	// Err is the underlying error, if any
	Err error
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("abs api request failed: %s (status %d %s, url %s)", e.Message, e.StatusCode, e.Status, e.URL)
	}
	if e.URL != "" {
		return fmt.Sprintf("abs api request failed: %s (url %s)", e.Message, e.URL)
	}
	return fmt.Sprintf("abs api request failed: %s", e.Message)
}

// Unwrap returns the underlying error
func (e *RemoteError) Unwrap() error {
	return e.Err
}
