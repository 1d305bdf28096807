package gateway

import (
	"github.com/dmitrymomot/budgetguard/core/cache"
	"github.com/dmitrymomot/budgetguard/core/server"
	"github.com/dmitrymomot/budgetguard/pkg/async"
	"github.com/dmitrymomot/budgetguard/pkg/ratelimiter"
)

// Config is the full process configuration, loaded from the environment.
type Config struct {
	Server    server.Config
	Cache     cache.Config
	RateLimit ratelimiter.Config
	WriteBack async.Config

	AppName  string `env:"APP_NAME" envDefault:"budgetguard"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// PrincipalHeader is the header a trusted auth proxy sets to the principal ID.
	PrincipalHeader string `env:"PRINCIPAL_HEADER" envDefault:"X-Principal-ID"`
}

// IsProduction reports whether APP_ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
