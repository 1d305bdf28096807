package ratelimiter

import (
	"fmt"
	"time"
)

// Config holds limiter settings. Field tags allow loading it with core/config.
type Config struct {
	// Requests is the bucket capacity: how many requests a key may make per Window.
	Requests int `env:"RATELIMIT_REQUESTS" envDefault:"100"`
	// Window is the time it takes an empty bucket to refill completely.
	Window time.Duration `env:"RATELIMIT_WINDOW" envDefault:"60s"`
	// CleanupInterval is how often idle keys are swept.
	CleanupInterval time.Duration `env:"RATELIMIT_CLEANUP_INTERVAL" envDefault:"300s"`
	// IdleTimeout is the quiescence window after which an untouched key is dropped.
	IdleTimeout time.Duration `env:"RATELIMIT_IDLE_TIMEOUT" envDefault:"600s"`
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Requests <= 0:
		return fmt.Errorf("%w: requests must be positive, got %d", ErrInvalidConfig, c.Requests)
	case c.Window <= 0:
		return fmt.Errorf("%w: window must be positive, got %s", ErrInvalidConfig, c.Window)
	case c.CleanupInterval <= 0:
		return fmt.Errorf("%w: cleanup interval must be positive, got %s", ErrInvalidConfig, c.CleanupInterval)
	case c.IdleTimeout < c.Window:
		// An idle bucket must have had time to refill before it is dropped.
		return fmt.Errorf("%w: idle timeout %s is shorter than window %s", ErrInvalidConfig, c.IdleTimeout, c.Window)
	}
	return nil
}
