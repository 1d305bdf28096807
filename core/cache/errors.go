package cache

import "errors"

var (
	ErrInvalidCapacity = errors.New("cache: capacity must be greater than 0")
	ErrInvalidTTL      = errors.New("cache: ttl must not be negative")
	ErrInvalidInterval = errors.New("cache: sweep interval must be greater than 0")
	ErrNilLoader       = errors.New("cache: loader is required")
)
