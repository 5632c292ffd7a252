package fetcher

import (
	"errors"
	"fmt"
)

// ErrHTTPStatus is wrapped by FetchError when the server answered with
// a status of 400 or above.
var ErrHTTPStatus = errors.New("unexpected HTTP status")

// FetchError reports a failed page fetch.
// It is non-fatal to a crawl: the page is skipped.
type FetchError struct {
	// URL is the page that could not be fetched.
	URL string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}
