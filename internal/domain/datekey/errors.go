package datekey

import "errors"

// ErrInvalidKey is returned for strings that are neither keys nor timestamps.
var ErrInvalidKey = errors.New("invalid date key")
