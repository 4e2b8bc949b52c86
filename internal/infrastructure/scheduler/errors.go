package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrPollerNotRunning is returned when triggering a stopped poller
	ErrPollerNotRunning = errors.New("refresh poller is not running")
)
