package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrTriggerNotRunning is returned when a manual pass is requested from a stopped trigger
	ErrTriggerNotRunning = errors.New("trigger is not running")

	// ErrPassQueued is returned when a manual pass is already waiting to run
	ErrPassQueued = errors.New("a pass is already queued")
)
