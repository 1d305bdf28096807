package async

import (
	"fmt"
	"time"
)

// Config holds pool settings. Field tags allow loading it with core/config.
type Config struct {
	Workers         int           `env:"CACHE_WRITEBACK_WORKERS" envDefault:"4"`
	QueueSize       int           `env:"CACHE_WRITEBACK_QUEUE" envDefault:"256"`
	ShutdownTimeout time.Duration `env:"CACHE_WRITEBACK_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue size must be at least 1, got %d", ErrInvalidConfig, c.QueueSize)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: shutdown timeout must be positive, got %s", ErrInvalidConfig, c.ShutdownTimeout)
	}
	return nil
}
