package ratelimiter

import "errors"

// Package-level error definitions for rate limiter operations.
var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrNilScheduler      = errors.New("scheduler is nil")
	ErrSweepNotScheduled = errors.New("idle sweep is not scheduled")
	ErrSweepStalled      = errors.New("idle sweep has not run within the expected interval")
)
