package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/dmitrymomot/budgetguard/core/handler"
	"github.com/dmitrymomot/budgetguard/core/health"
	"github.com/dmitrymomot/budgetguard/core/logger"
	"github.com/dmitrymomot/budgetguard/core/response"
	"github.com/dmitrymomot/budgetguard/core/router"
	"github.com/dmitrymomot/budgetguard/middleware"
)

const readinessTimeout = 2 * time.Second

func (app *App) routes() {
	r := app.router

	r.Use(
		middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
			Logger: app.logger,
			Skip:   isProbe,
		}),
		middleware.RequestID[*router.Context](),
	)

	r.Get("/health/live", health.Liveness[*router.Context])
	r.Get("/health/ready", health.Readiness[*router.Context](app.logger, readinessTimeout,
		health.Check{Name: "ratelimit", Fn: app.limiter.Healthcheck},
		health.Check{Name: "scheduler", Fn: app.scheduler.Healthcheck},
		health.Check{Name: "writeback", Fn: app.writeback.Healthcheck},
	))

	r.Route("/api", func(api router.Router[*router.Context]) {
		api.Use(
			middleware.ClientIP[*router.Context](),
			middleware.PrincipalWithConfig[*router.Context](middleware.PrincipalConfig{
				Extractor: middleware.PrincipalFromHeader(app.config.PrincipalHeader),
			}),
			middleware.RateLimitWithConfig[*router.Context](middleware.RateLimitConfig{
				Limiter: app.limiter,
				Metrics: app.metrics,
				Logger:  app.logger,
			}),
		)

		api.With(middleware.ResponseCacheWithConfig[*router.Context](middleware.ResponseCacheConfig{
			Manager: app.cache,
			Pool:    app.writeback,
			Metrics: app.metrics,
			Logger:  app.logger,
		})).Get("/budgets/{id}/summary", app.getSummary)

		api.Delete("/budgets/{id}/summary", app.invalidateSummary)
	})

	r.Get("/debug/stats", app.stats)
}

func isProbe(ctx handler.Context) bool {
	switch ctx.Request().URL.Path {
	case "/health/live", "/health/ready":
		return true
	}
	return false
}

func summaryKey(principal int64, budgetID string) string {
	return "summary:" + strconv.FormatInt(principal, 10) + ":" + budgetID
}

// getSummary reads through the query cache; the response cache in front of it
// keeps the rendered body.
func (app *App) getSummary(ctx *router.Context) handler.Response {
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}
	budgetID := ctx.Param("id")

	body, err := app.cache.Query(ctx, summaryKey(principal, budgetID), func(ctx context.Context) (string, error) {
		sum, err := app.source.Summary(ctx, principal, budgetID)
		if err != nil {
			return "", err
		}
		return encodeSummary(sum)
	})
	if err != nil {
		if errors.Is(err, ErrBudgetNotFound) {
			return response.Error(notFound{err})
		}
		return response.Error(err)
	}
	return response.Bytes([]byte(body), "application/json")
}

// invalidateSummary drops the cached summary and every rendered variant of it
// after the budget changed upstream.
func (app *App) invalidateSummary(ctx *router.Context) handler.Response {
	principal, ok := middleware.GetPrincipal(ctx)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}
	budgetID := ctx.Param("id")

	app.cache.InvalidateQuery(summaryKey(principal, budgetID))
	app.cache.InvalidateResponsePrefix(middleware.CacheKeyPrefix(ctx))
	return response.NoContent()
}

type statsReport struct {
	Cache     any `json:"cache"`
	RateLimit any `json:"ratelimit"`
	WriteBack any `json:"writeback"`
	Scheduler any `json:"scheduler"`
}

func (app *App) stats(ctx *router.Context) handler.Response {
	return response.JSON(statsReport{
		Cache:     app.cache.Stats(),
		RateLimit: app.limiter.Stats(),
		WriteBack: app.writeback.Stats(),
		Scheduler: app.scheduler.Stats(),
	})
}

// errorHandler renders JSON errors and logs server-side failures.
func errorHandler(log *slog.Logger) handler.ErrorHandler[*router.Context] {
	return func(ctx *router.Context, err error) {
		var sc interface{ StatusCode() int }
		if !errors.As(err, &sc) || sc.StatusCode() >= 500 {
			log.ErrorContext(ctx, "request failed",
				logger.Component("http"),
				logger.Method(ctx.Request().Method),
				logger.Path(ctx.Request().URL.Path),
				logger.Error(err),
			)
		}
		response.JSONErrorHandler(ctx, err)
	}
}
