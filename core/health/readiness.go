package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/budgetguard/core/handler"
	"github.com/dmitrymomot/budgetguard/core/logger"
	"github.com/dmitrymomot/budgetguard/core/response"
)

// Check is a named dependency probe.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Report is the readiness response body.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

const (
	statusReady       = "ready"
	statusUnavailable = "unavailable"
	checkOK           = "ok"
)

// Readiness runs every check concurrently, each bounded by timeout.
// It answers 200 with a Report when all pass and 503 with the same shape
// when any fails.
func Readiness[C handler.Context](log *slog.Logger, timeout time.Duration, checks ...Check) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		report := Report{Status: statusReady, Checks: make(map[string]string, len(checks))}
		var mu sync.Mutex

		var g errgroup.Group
		for _, c := range checks {
			g.Go(func() error {
				cctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				result := checkOK
				if err := c.Fn(cctx); err != nil {
					result = err.Error()
					log.ErrorContext(ctx, "readiness check failed",
						logger.Component("health"),
						logger.Key("check", c.Name),
						logger.Error(err),
					)
				}

				mu.Lock()
				report.Checks[c.Name] = result
				if result != checkOK {
					report.Status = statusUnavailable
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		if report.Status != statusReady {
			return response.JSONWithStatus(report, response.ErrServiceUnavailable.Status)
		}
		return response.JSON(report)
	}
}
