package snapshot

import "errors"

// Sentinel errors for snapshot storage.
var (
	ErrNoPath = errors.New("snapshot base path is empty")
	ErrRead   = errors.New("snapshot read failed")
	ErrWrite  = errors.New("snapshot write failed")
	ErrEncode = errors.New("snapshot encoding failed")
)
