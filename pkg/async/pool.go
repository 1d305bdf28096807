package async

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/budgetguard/core/logger"
)

// Task is a unit of background work. A returned error is logged and dropped.
type Task func(ctx context.Context) error

// Pool runs tasks on a fixed number of workers fed by a bounded queue.
// Submit never blocks: when the queue is full the task is dropped.
type Pool struct {
	workers         int
	queueSize       int
	shutdownTimeout time.Duration
	logger          *slog.Logger

	// mu guards closed and the queue close; Submit only takes the read lock
	// and never blocks while holding it.
	mu     sync.RWMutex
	queue  chan Task
	closed bool

	stateMu sync.Mutex
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// Stats provides observability counters for monitoring and debugging.
type Stats struct {
	Workers   int   // Number of workers
	Queued    int   // Tasks waiting in the queue
	Submitted int64 // Tasks accepted by Submit
	Completed int64 // Tasks that returned nil
	Failed    int64 // Tasks that returned an error or panicked
	Dropped   int64 // Tasks rejected because the queue was full or the pool stopped
	IsRunning bool  // Whether the workers are running
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger for task failures and lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pool) {
		if log != nil {
			p.logger = log
		}
	}
}

// New validates cfg and returns a Pool. Workers are started by Start or Run.
func New(cfg Config, opts ...Option) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		workers:         cfg.Workers,
		queueSize:       cfg.QueueSize,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		queue:           make(chan Task, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Submit enqueues task without waiting. It reports false when the task was
// dropped because the queue is full or the pool has been stopped.
// Tasks submitted before Start wait in the queue.
func (p *Pool) Submit(task Task) bool {
	if task == nil {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.dropped.Add(1)
		return false
	}

	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return true
	default:
		p.dropped.Add(1)
		p.logger.Warn("async queue full, task dropped",
			logger.Component("async"),
			logger.Count("queue_size", p.queueSize),
		)
		return false
	}
}

// Start launches the workers and blocks until ctx is cancelled.
// Use Run() for errgroup pattern or call this in a goroutine.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPoolStopped
	}

	p.stateMu.Lock()
	if p.cancel != nil {
		p.stateMu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	// Tasks must be able to finish while the pool drains after cancellation.
	taskCtx := context.WithoutCancel(ctx)
	for range p.workers {
		p.wg.Add(1)
		go p.worker(taskCtx)
	}
	p.stateMu.Unlock()

	p.running.Store(true)
	p.logger.InfoContext(ctx, "async pool started",
		logger.Component("async"),
		logger.Count("workers", p.workers),
		logger.Count("queue_size", p.queueSize),
	)

	<-ctx.Done()
	return ctx.Err()
}

// Stop rejects new tasks, lets the workers drain the queue and waits for them
// up to the shutdown timeout.
func (p *Pool) Stop() error {
	p.stateMu.Lock()
	if p.cancel == nil {
		p.stateMu.Unlock()
		return ErrNotStarted
	}
	cancel := p.cancel
	p.stateMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolStopped
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	defer cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(p.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		p.running.Store(false)
		p.logger.Info("async pool stopped cleanly", logger.Component("async"))
		return nil
	case <-timer.C:
		p.logger.Warn("async pool shutdown timeout exceeded",
			logger.Component("async"),
			logger.Duration(p.shutdownTimeout),
		)
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, p.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the workers, monitors context cancellation,
// and drains the queue when the context is cancelled.
func (p *Pool) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- p.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			<-errCh
			return p.Stop()
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return p.Stop()
			}
			return err
		}
	}
}

// Stats returns current pool statistics. Safe to call at any time.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Queued:    len(p.queue),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Dropped:   p.dropped.Load(),
		IsRunning: p.running.Load(),
	}
}

// Healthcheck reports an error when the workers are not running.
func (p *Pool) Healthcheck(ctx context.Context) error {
	if !p.running.Load() {
		return ErrNotStarted
	}
	return nil
}

// worker drains the queue until it is closed, so queued tasks still run on Stop.
func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for task := range p.queue {
		p.execute(ctx, task)
	}
}

func (p *Pool) execute(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			p.logger.ErrorContext(ctx, "async task panic recovered",
				logger.Component("async"),
				logger.Key("panic", r),
				logger.Stack(),
			)
		}
	}()

	if err := task(ctx); err != nil {
		p.failed.Add(1)
		p.logger.WarnContext(ctx, "async task failed",
			logger.Component("async"),
			logger.Error(err),
		)
		return
	}
	p.completed.Add(1)
}
