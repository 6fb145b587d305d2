package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidDate = errors.New("event date is not a valid day")
	ErrMissingID   = errors.New("missing id")
)
