package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrServe      = errors.New("http serve failed")
	ErrBadRequest = errors.New("invalid JSON body")
)
