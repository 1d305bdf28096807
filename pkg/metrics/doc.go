// Package metrics records request-boundary outcomes as OpenTelemetry counters.
//
// Instruments:
//   - budgetguard.cache.lookups{result=hit|miss}
//   - budgetguard.cache.writes{outcome=queued|dropped|skipped}
//   - budgetguard.ratelimit.checks{mode, allowed}
//
// Usage:
//
//	rec, err := metrics.New(metrics.WithMeterProvider(provider))
//	if err != nil {
//		return err
//	}
//	rec.CacheLookup(ctx, metrics.CacheHit)
//
// A nil *Recorder is safe to call and records nothing. Noop returns a
// Recorder backed by the OpenTelemetry no-op provider.
package metrics
