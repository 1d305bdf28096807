// Package server wraps http.Server with env-driven configuration and graceful
// shutdown that fits an errgroup.
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, router))
//	return g.Wait()
//
// Request contexts derive from the Run context without its cancellation, so
// in-flight requests finish during the shutdown timeout.
package server
