// Package health provides HTTP handlers for liveness and readiness probes.
//
//	r.Get("/health/live", health.Liveness[*router.Context])
//	r.Get("/health/ready", health.Readiness[*router.Context](log, 2*time.Second,
//		health.Check{Name: "ratelimit", Fn: limiter.Healthcheck},
//		health.Check{Name: "scheduler", Fn: sched.Healthcheck},
//	))
//	r.Get("/ping", health.NoContent[*router.Context])
//
// Readiness answers with a JSON report naming each check and 503 if any failed.
package health
