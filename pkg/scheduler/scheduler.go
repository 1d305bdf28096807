package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/budgetguard/core/logger"
)

// Job is a periodic unit of work. A returned error is logged; the job keeps
// its schedule.
type Job func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	fn       Job

	runs     atomic.Int64
	failures atomic.Int64
	lastRun  atomic.Int64 // unix nanos
	lastErr  atomic.Pointer[string]
}

// JobStats describes a registered job.
type JobStats struct {
	Name      string
	Interval  time.Duration
	Runs      int64
	Failures  int64
	LastRun   time.Time // zero until the first run
	LastError string    // empty when the last run succeeded
}

// Stats provides observability data for monitoring and debugging.
type Stats struct {
	Jobs      []JobStats // ordered by name
	IsRunning bool
}

// Scheduler runs named jobs at fixed intervals on top of robfig/cron.
// A job never overlaps with itself: a tick that arrives while the previous
// run is still busy is skipped. Panics are recovered and logged.
type Scheduler struct {
	cron            *cron.Cron
	logger          *slog.Logger
	shutdownTimeout time.Duration

	mu     sync.RWMutex
	jobs   map[string]*job
	ctx    context.Context // passed to jobs while running
	cancel context.CancelFunc

	running atomic.Bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger for job failures and lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithShutdownTimeout sets how long Stop waits for running jobs.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		if timeout > 0 {
			s.shutdownTimeout = timeout
		}
	}
}

// New creates a scheduler. Jobs only run between Start and Stop.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdownTimeout: 30 * time.Second,
		jobs:            make(map[string]*job),
	}
	for _, opt := range opts {
		opt(s)
	}

	l := cronLogger{log: s.logger}
	s.cron = cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	return s
}

// Every registers fn under name to run every interval. Intervals below one
// second are rounded up to one second.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	switch {
	case name == "":
		return ErrEmptyName
	case fn == nil:
		return ErrNilJob
	case interval <= 0:
		return fmt.Errorf("%w: %s got %s", ErrInvalidInterval, name, interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	j := &job{name: name, interval: interval, fn: fn}
	s.jobs[name] = j
	s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() { s.run(j) }))
	return nil
}

// Start launches the cron loop and blocks until ctx is cancelled.
// Use Run() for errgroup pattern or call this in a goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx
	jobs := len(s.jobs)
	s.mu.Unlock()

	s.cron.Start()
	s.running.Store(true)
	s.logger.InfoContext(runCtx, "scheduler started",
		logger.Component("scheduler"),
		logger.Count("jobs", jobs),
	)

	<-runCtx.Done()
	return runCtx.Err()
}

// Stop stops scheduling new runs and waits for running jobs up to the
// shutdown timeout. Running jobs see their context cancelled.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return ErrNotStarted
	}
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	done := s.cron.Stop()
	cancel()
	s.running.Store(false)

	timer := time.NewTimer(s.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped cleanly", logger.Component("scheduler"))
		return nil
	case <-timer.C:
		s.logger.Warn("scheduler shutdown timeout exceeded",
			logger.Component("scheduler"),
			logger.Duration(s.shutdownTimeout),
		)
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, s.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the scheduler, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- s.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			<-errCh
			return s.Stop()
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return s.Stop()
			}
			return err
		}
	}
}

// Stats returns a snapshot of registered jobs and their counters.
func (s *Scheduler) Stats() Stats {
	s.mu.RLock()
	jobs := make([]JobStats, 0, len(s.jobs))
	for _, j := range s.jobs {
		js := JobStats{
			Name:     j.name,
			Interval: j.interval,
			Runs:     j.runs.Load(),
			Failures: j.failures.Load(),
		}
		if ts := j.lastRun.Load(); ts > 0 {
			js.LastRun = time.Unix(0, ts)
		}
		if msg := j.lastErr.Load(); msg != nil {
			js.LastError = *msg
		}
		jobs = append(jobs, js)
	}
	s.mu.RUnlock()

	sort.Slice(jobs, func(i, k int) bool { return jobs[i].Name < jobs[k].Name })
	return Stats{Jobs: jobs, IsRunning: s.running.Load()}
}

// Healthcheck reports an error when the scheduler is not running.
func (s *Scheduler) Healthcheck(ctx context.Context) error {
	if !s.running.Load() {
		return ErrNotStarted
	}
	return nil
}

func (s *Scheduler) run(j *job) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := j.fn(ctx)
	j.runs.Add(1)
	j.lastRun.Store(start.UnixNano())

	if err != nil {
		msg := err.Error()
		j.failures.Add(1)
		j.lastErr.Store(&msg)
		s.logger.WarnContext(ctx, "scheduled job failed",
			logger.Component("scheduler"),
			logger.Key("job", j.name),
			logger.Error(err),
			logger.Elapsed(start),
		)
		return
	}
	j.lastErr.Store(nil)
}
