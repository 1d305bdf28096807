package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	defaultInstrumentationName = "github.com/dmitrymomot/budgetguard"

	metricCacheLookups    = "budgetguard.cache.lookups"
	metricCacheWrites     = "budgetguard.cache.writes"
	metricRateLimitChecks = "budgetguard.ratelimit.checks"
)

// Cache lookup outcomes.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Cache write-back outcomes.
const (
	WriteQueued  = "queued"
	WriteDropped = "dropped"
	WriteSkipped = "skipped"
)

// Recorder counts cache and rate limiter outcomes. The zero value is not
// usable; use New or Noop.
type Recorder struct {
	lookups metric.Int64Counter
	writes  metric.Int64Counter
	checks  metric.Int64Counter
}

type config struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
}

// Option configures a Recorder.
type Option func(*config)

// WithMeterProvider sets the MeterProvider. Defaults to the global provider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *config) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// WithInstrumentationName sets the instrumentation scope name.
func WithInstrumentationName(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// New creates a Recorder backed by OpenTelemetry counters.
func New(opts ...Option) (*Recorder, error) {
	cfg := &config{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	lookups, err := meter.Int64Counter(metricCacheLookups,
		metric.WithDescription("response cache lookups by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: create %s: %w", metricCacheLookups, err)
	}

	writes, err := meter.Int64Counter(metricCacheWrites,
		metric.WithDescription("response cache write-backs by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: create %s: %w", metricCacheWrites, err)
	}

	checks, err := meter.Int64Counter(metricRateLimitChecks,
		metric.WithDescription("rate limit checks by mode and verdict"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: create %s: %w", metricRateLimitChecks, err)
	}

	return &Recorder{lookups: lookups, writes: writes, checks: checks}, nil
}

// Noop returns a Recorder that discards everything.
func Noop() *Recorder {
	r, _ := New(WithMeterProvider(noop.NewMeterProvider()))
	return r
}

// CacheLookup records a response cache lookup. result is CacheHit or CacheMiss.
func (r *Recorder) CacheLookup(ctx context.Context, result string) {
	if r == nil {
		return
	}
	r.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// CacheWrite records the outcome of a response write-back.
func (r *Recorder) CacheWrite(ctx context.Context, outcome string) {
	if r == nil {
		return
	}
	r.writes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RateLimitCheck records an admission verdict for the given mode.
func (r *Recorder) RateLimitCheck(ctx context.Context, mode string, allowed bool) {
	if r == nil {
		return
	}
	r.checks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("allowed", allowed),
	))
}
