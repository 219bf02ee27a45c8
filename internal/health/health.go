// Package health exposes liveness/readiness endpoints over a small
// stdlib HTTP server, adapted from the teacher's HTTPHealthServer and
// repointed at relay health (registry size, last sweep summary) instead
// of camera/recording health.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/relaycore/dynrelay/internal/logging"
	"github.com/relaycore/dynrelay/internal/relay"
)

// Config controls the health server's listen address and timeouts.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server serves /healthz (liveness) and /readyz (readiness) plus a
// /status endpoint summarizing registry size and the last sweep.
type Server struct {
	httpServer *http.Server
	log        *logging.Logger
	registry   *relay.Registry
	startTime  time.Time

	mu          sync.RWMutex
	lastSweep   relay.SweepResult
	lastSweepAt time.Time
	ready       bool
}

// NewServer builds a health Server reporting on registry.
func NewServer(cfg Config, registry *relay.Registry, log *logging.Logger) *Server {
	if log == nil {
		log = logging.New("health")
	}
	s := &Server{log: log, registry: registry, startTime: time.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleLiveness)
	mux.HandleFunc("GET /readyz", s.handleReadiness)
	mux.HandleFunc("GET /status", s.handleStatus)

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 5 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s
}

// SetReady flips the readiness flag, used once all core services have
// finished initializing; until it is set to true /readyz answers 503.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// RecordSweep stores the most recent sweep result for /status.
func (s *Server) RecordSweep(result relay.SweepResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSweep = result
	s.lastSweepAt = time.Now()
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()

	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	lastSweep := s.lastSweep
	lastSweepAt := s.lastSweepAt
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime_seconds":  time.Since(s.startTime).Seconds(),
		"registry_size":   s.registry.Len(),
		"last_sweep":      lastSweep,
		"last_sweep_time": lastSweepAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Start runs the health server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.httpServer.Addr).Info("health server listening")
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

// Stop gracefully shuts down the health server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
