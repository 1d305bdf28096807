// Package logger builds slog loggers and provides attribute helpers with
// consistent keys across the service.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/budgetguard/core/logger"
//
//	log := logger.New(
//		logger.WithProduction("budgetguard"),
//		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
//	)
//
//	log.Info("server starting",
//		logger.Component("server"),
//		logger.Event("startup"),
//	)
//
// Development loggers write text at debug level, production loggers write
// JSON at info level:
//
//	devLogger := logger.New(logger.WithDevelopment("budgetguard"))
//	prodLogger := logger.New(logger.WithProduction("budgetguard"))
//
// # Context Extractors
//
// Extractors add request-scoped attributes to every *Context log call:
//
//	log := logger.New(
//		logger.WithProduction("budgetguard"),
//		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
//			id, ok := middleware.RequestIDFromContext(ctx)
//			return logger.RequestID(id), ok
//		}),
//	)
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for nil or missing input, which slog
// silently drops:
//
//	log.Warn("write-back failed",
//		logger.Component("cache"),
//		logger.Error(err), // no-op when err is nil
//	)
//
//	log.Info("request",
//		logger.Method(r.Method),
//		logger.Path(r.URL.Path),
//		logger.StatusCode(status),
//		logger.ClientIP(addr),
//		logger.Principal(id, ok),
//		logger.CacheStatus(w.Header().Get("X-Cache-Status")),
//		logger.Latency(time.Since(start)),
//	)
//
// # Testing with Custom Output
//
//	var buf bytes.Buffer
//	log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(&buf))
package logger
