package service

import "errors"

// ErrStopped is returned by Start after Stop.
var ErrStopped = errors.New("planner service already stopped")
