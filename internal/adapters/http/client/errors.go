package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for client failures.
var (
	ErrTransport = errors.New("request could not complete")
	ErrDecode    = errors.New("unrecognized response body")
	ErrBaseURL   = errors.New("invalid base url")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.StatusCode, e.Message)
}

// NotFound reports whether the backend answered 404.
func (e *APIError) NotFound() bool { return e.StatusCode == http.StatusNotFound }
