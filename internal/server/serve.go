package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"storefront-be/internal/logutil"
)

// Serve listens on bind and serves handler until ctx is cancelled, then shuts
// down gracefully within shutdownTimeout.
func Serve(ctx context.Context, bind string, handler http.Handler, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}
	return ServeListener(ctx, ln, handler, shutdownTimeout)
}

// ServeListener is Serve on an already bound listener.
func ServeListener(ctx context.Context, ln net.Listener, handler http.Handler, shutdownTimeout time.Duration) error {
	server := &http.Server{
		Handler:           handler,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute * 5,
	}
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", ln.Addr().String()).Logger()

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		log.Info().Msg("Starting HTTP server")
		err := server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			log.Info().Msg("Server closed")
			return
		}
		errc <- err
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Initiating shutdown process")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Shutdown completed")
	return <-errc
}
