package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/budgetguard/core/cache"
	"github.com/dmitrymomot/budgetguard/core/config"
	"github.com/dmitrymomot/budgetguard/core/logger"
	"github.com/dmitrymomot/budgetguard/core/router"
	"github.com/dmitrymomot/budgetguard/core/server"
	"github.com/dmitrymomot/budgetguard/middleware"
	"github.com/dmitrymomot/budgetguard/pkg/async"
	"github.com/dmitrymomot/budgetguard/pkg/metrics"
	"github.com/dmitrymomot/budgetguard/pkg/ratelimiter"
	"github.com/dmitrymomot/budgetguard/pkg/scheduler"
)

// App owns every long-lived component of the process. Nothing runs until Run.
type App struct {
	config    Config
	logger    *slog.Logger
	router    router.Router[*router.Context]
	server    *server.Server
	cache     *cache.Manager
	limiter   *ratelimiter.Limiter
	writeback *async.Pool
	scheduler *scheduler.Scheduler
	metrics   *metrics.Recorder
	source    SummarySource

	configSet bool
}

type AppOption func(*App) error

// NewApp builds the components, registers the sweep jobs and mounts the routes.
// Without WithConfig the configuration is loaded from the environment.
func NewApp(opts ...AppOption) (*App, error) {
	app := &App{}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if !app.configSet {
		if err := config.Load(&app.config); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	if app.logger == nil {
		app.logger = newLogger(app.config)
	}

	if app.metrics == nil {
		rec, err := metrics.New()
		if err != nil {
			return nil, err
		}
		app.metrics = rec
	}

	if app.source == nil {
		app.source = NewMemorySource()
	}

	if app.cache == nil {
		m, err := cache.NewManager(app.config.Cache, cache.WithManagerLogger(app.logger))
		if err != nil {
			return nil, err
		}
		app.cache = m
	}

	if app.limiter == nil {
		l, err := ratelimiter.New(app.config.RateLimit, ratelimiter.WithLogger(app.logger))
		if err != nil {
			return nil, err
		}
		app.limiter = l
	}

	pool, err := async.New(app.config.WriteBack, async.WithLogger(app.logger))
	if err != nil {
		return nil, err
	}
	app.writeback = pool

	app.scheduler = scheduler.New(scheduler.WithLogger(app.logger))
	if err := app.cache.Schedule(app.scheduler); err != nil {
		return nil, err
	}
	if err := app.limiter.Schedule(app.scheduler); err != nil {
		return nil, err
	}

	if app.server == nil {
		s, err := server.NewFromConfig(app.config.Server, server.WithLogger(app.logger))
		if err != nil {
			return nil, err
		}
		app.server = s
	}

	app.router = router.New[*router.Context](
		router.WithLogger[*router.Context](app.logger),
		router.WithErrorHandler(errorHandler(app.logger)),
	)
	app.routes()

	return app, nil
}

func newLogger(cfg Config) *slog.Logger {
	mode := logger.WithDevelopment(cfg.AppName)
	if cfg.IsProduction() {
		mode = logger.WithProduction(cfg.AppName)
	}
	return logger.New(
		mode,
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
			id, ok := middleware.GetRequestID(ctx)
			return logger.RequestID(id), ok
		}),
	)
}

// WithConfig skips environment loading.
func WithConfig(cfg Config) AppOption {
	return func(app *App) error {
		app.config = cfg
		app.configSet = true
		return nil
	}
}

func WithLogger(logger *slog.Logger) AppOption {
	return func(app *App) error {
		if logger == nil {
			return fmt.Errorf("%w: logger", ErrNilDependency)
		}
		app.logger = logger
		return nil
	}
}

func WithServer(server *server.Server) AppOption {
	return func(app *App) error {
		if server == nil {
			return fmt.Errorf("%w: server", ErrNilDependency)
		}
		app.server = server
		return nil
	}
}

func WithCacheManager(m *cache.Manager) AppOption {
	return func(app *App) error {
		if m == nil {
			return fmt.Errorf("%w: cache manager", ErrNilDependency)
		}
		app.cache = m
		return nil
	}
}

func WithLimiter(l *ratelimiter.Limiter) AppOption {
	return func(app *App) error {
		if l == nil {
			return fmt.Errorf("%w: limiter", ErrNilDependency)
		}
		app.limiter = l
		return nil
	}
}

func WithMetrics(r *metrics.Recorder) AppOption {
	return func(app *App) error {
		if r == nil {
			return fmt.Errorf("%w: metrics", ErrNilDependency)
		}
		app.metrics = r
		return nil
	}
}

func WithSummarySource(s SummarySource) AppOption {
	return func(app *App) error {
		if s == nil {
			return fmt.Errorf("%w: summary source", ErrNilDependency)
		}
		app.source = s
		return nil
	}
}

// Handler returns the root HTTP handler.
func (app *App) Handler() http.Handler {
	return app.router
}

func (app *App) Logger() *slog.Logger {
	return app.logger
}

// Run starts the scheduler, the write-back pool and the HTTP server and
// blocks until ctx is cancelled or one of them fails. Every component is
// stopped before Run returns.
func (app *App) Run(ctx context.Context) error {
	app.logger.InfoContext(ctx, "starting",
		logger.Component("app"),
		logger.Key("env", app.config.Env),
		logger.Key("addr", app.config.Server.Addr),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(app.scheduler.Run(ctx))
	g.Go(app.writeback.Run(ctx))
	g.Go(app.server.Run(ctx, app.router))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	app.logger.Info("stopped", logger.Component("app"))
	return nil
}
