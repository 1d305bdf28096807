package async

import "errors"

var (
	ErrInvalidConfig   = errors.New("async: invalid pool configuration")
	ErrAlreadyStarted  = errors.New("async: pool already started")
	ErrNotStarted      = errors.New("async: pool not started")
	ErrPoolStopped     = errors.New("async: pool stopped")
	ErrShutdownTimeout = errors.New("async: shutdown timeout exceeded")
)
