package contentstore

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrEmptySlug = errors.New("post slug is required")
	ErrNotFound  = errors.New("not found")
	ErrDecode    = errors.New("malformed response body")
	ErrClosed    = errors.New("store is closed")
)

// StatusError is returned by HTTPTransport for a non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Is matches ErrNotFound for 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}
