// Package scheduler runs named periodic jobs on top of robfig/cron.
//
// It is the timer facility for background maintenance such as cache and
// rate limiter sweeps. Components register their jobs with Every and the
// process owns the scheduler's lifecycle, so no component starts goroutines
// on its own.
//
// # Usage
//
//	sched := scheduler.New(scheduler.WithLogger(log))
//
//	if err := cacheManager.Schedule(sched); err != nil {
//		return err
//	}
//	if err := limiter.Schedule(sched); err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(sched.Run(ctx))
//
// # Behavior
//
//   - A job never overlaps with itself; a tick that finds it still running is skipped
//   - Panics are recovered and logged, the job keeps its schedule
//   - Errors are logged at warn level and recorded in Stats
//   - Jobs receive a context that is cancelled on Stop
package scheduler
