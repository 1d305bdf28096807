// Package async provides a bounded worker pool for fire-and-forget background work.
//
// A Pool runs tasks on a fixed number of workers fed by a bounded queue. Submit
// never blocks the caller: when the queue is full, or the pool has been stopped,
// the task is dropped and counted. This makes it safe to hand work off from a
// request path, such as writing a computed response back into a cache, without
// risking unbounded goroutine growth under load.
//
// # Usage
//
//	pool, err := async.New(async.Config{
//		Workers:         4,
//		QueueSize:       256,
//		ShutdownTimeout: 10 * time.Second,
//	}, async.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(pool.Run(ctx))
//
//	ok := pool.Submit(func(ctx context.Context) error {
//		cacheManager.PutResponse(key, body)
//		return nil
//	})
//	if !ok {
//		// dropped under overload; the caller already has its response
//	}
//
// # Failure Handling
//
// A task error is logged at warn level and counted as failed. A panic is
// recovered, logged with its stack and counted as failed. Neither is retried.
//
// # Lifecycle
//
// Tasks submitted before Start wait in the queue. Stop stops accepting tasks,
// lets the workers drain what is already queued and waits up to the shutdown
// timeout. Tasks run with a context that is not cancelled by shutdown, so a
// drain is not cut short.
//
// # Error Handling
//
//   - ErrInvalidConfig: invalid pool parameters
//   - ErrAlreadyStarted, ErrNotStarted, ErrPoolStopped: lifecycle misuse
//   - ErrShutdownTimeout: workers did not finish within the shutdown timeout
package async
