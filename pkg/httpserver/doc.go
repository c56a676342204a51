// Package httpserver runs an http.Handler with server timeouts and graceful
// shutdown on context cancellation, SIGINT or SIGTERM, and provides the liveness
// and readiness handlers mounted under /health.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// Run returns errors joined with ErrStart; Shutdown joins with ErrShutdown.
package httpserver
