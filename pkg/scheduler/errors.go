package scheduler

import "errors"

var (
	ErrNilJob          = errors.New("scheduler: job cannot be nil")
	ErrEmptyName       = errors.New("scheduler: job name cannot be empty")
	ErrDuplicateJob    = errors.New("scheduler: job already registered")
	ErrInvalidInterval = errors.New("scheduler: interval must be positive")
	ErrAlreadyStarted  = errors.New("scheduler: already started")
	ErrNotStarted      = errors.New("scheduler: not started")
	ErrShutdownTimeout = errors.New("scheduler: shutdown timeout exceeded")
)
