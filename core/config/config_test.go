package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/budgetguard/core/cache"
	"github.com/dmitrymomot/budgetguard/core/config"
	"github.com/dmitrymomot/budgetguard/pkg/ratelimiter"
)

type sweepConfig struct {
	Interval time.Duration `env:"CONFIG_TEST_SWEEP_INTERVAL" envDefault:"300s"`
	Capacity int           `env:"CONFIG_TEST_CAPACITY" envDefault:"1000"`
}

type requiredConfig struct {
	Secret string `env:"CONFIG_TEST_REQUIRED_SECRET,required"`
}

type cachedConfig struct {
	Value string `env:"CONFIG_TEST_CACHED_VALUE" envDefault:"default"`
}

type processConfig struct {
	Limits ratelimiter.Config
	Caches cache.Config
}

func TestLoad_NestedComponentConfigs(t *testing.T) {
	t.Setenv("RATELIMIT_REQUESTS", "7")
	t.Setenv("CACHE_TTL", "90s")

	var cfg processConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 7, cfg.Limits.Requests)
	assert.Equal(t, 60*time.Second, cfg.Limits.Window)
	assert.Equal(t, 90*time.Second, cfg.Caches.TTL)
	assert.Equal(t, 1000, cfg.Caches.ResponseCapacity)
	require.NoError(t, cfg.Limits.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	var cfg sweepConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 300*time.Second, cfg.Interval)
	assert.Equal(t, 1000, cfg.Capacity)
}

func TestLoad_CachesPerType(t *testing.T) {
	t.Setenv("CONFIG_TEST_CACHED_VALUE", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))
	assert.Equal(t, "first", first.Value)

	t.Setenv("CONFIG_TEST_CACHED_VALUE", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)
}

func TestLoad_Errors(t *testing.T) {
	var cfg requiredConfig
	assert.Error(t, config.Load(&cfg))
	assert.Panics(t, func() { config.MustLoad(&requiredConfig{}) })

	assert.Error(t, config.Load[sweepConfig](nil))
}
