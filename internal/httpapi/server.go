// Package httpapi is the HTTP transport and routing layer (§6): the
// external collaborator spec.md names as out of the core's scope,
// implemented here so the relay is a runnable service.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/relaycore/dynrelay/internal/logging"
	"github.com/relaycore/dynrelay/internal/relay"
)

// Server exposes the stream-management HTTP surface over a stdlib
// net/http server, grounded in the teacher's http_health_server.go
// pattern: a thin ServeMux delegating every route to a handler method.
type Server struct {
	httpServer *http.Server
	log        *logging.Logger
}

// Config controls listen address and request timeouts.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer builds a Server bound to lifecycle and sweeper for stream
// operations.
func NewServer(cfg Config, lifecycle *relay.Lifecycle, registry *relay.Registry, sweeper *relay.Sweeper, log *logging.Logger) *Server {
	if log == nil {
		log = logging.New("httpapi")
	}
	h := &handlers{lifecycle: lifecycle, registry: registry, sweeper: sweeper, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /streams", h.addStream)
	mux.HandleFunc("GET /streams", h.listStreams)
	mux.HandleFunc("PUT /streams/{id}", h.putStream)
	mux.HandleFunc("DELETE /streams/stale", h.sweepStale)
	mux.HandleFunc("DELETE /streams/{id}", h.removeStream)

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	idleTimeout := cfg.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = 60 * time.Second
	}

	return &Server{
		log: log,
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      withCorrelationID(mux, log),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
	}
}

// Start runs the HTTP server until ctx is cancelled, then gracefully
// shuts it down.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.httpServer.Addr).Info("http api listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return s.Stop(context.Background())
	case err := <-errCh:
		return err
	}
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func withCorrelationID(next http.Handler, log *logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithCorrelationID(r.Context(), r.Header.Get("X-Correlation-ID"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
