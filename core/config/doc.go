// Package config loads environment-tagged structs with caarlos0/env.
//
// A .env file in the working directory is read once, on first use, through
// joho/godotenv. Variables already present in the process environment win.
//
//	import "github.com/dmitrymomot/budgetguard/core/config"
//
//	var limits ratelimiter.Config
//	if err := config.Load(&limits); err != nil {
//		return fmt.Errorf("load rate limit config: %w", err)
//	}
//
//	// Startup code may prefer a panic.
//	var caches cache.Config
//	config.MustLoad(&caches)
//
// # Caching
//
// Each struct type is parsed once per process. Later calls for the same type
// copy the cached value, so components can load their own config without
// re-reading the environment:
//
//	var a, b cache.Config
//	config.MustLoad(&a) // reads CACHE_* variables
//	config.MustLoad(&b) // cached, b == a
//
// Nested structs are parsed as part of their parent, which is how
// gateway.Config pulls in cache.Config, ratelimiter.Config, async.Config and
// server.Config in one call.
package config
