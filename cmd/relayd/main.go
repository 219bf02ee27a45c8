// Command relayd is the dynamic RTSP relay's entry point: it wires the
// config, logging, camera store, media engine adapter and lifecycle
// manager together and serves the HTTP control-plane and health
// surfaces until told to shut down.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/relaycore/dynrelay/internal/camerastore"
	"github.com/relaycore/dynrelay/internal/common"
	"github.com/relaycore/dynrelay/internal/config"
	"github.com/relaycore/dynrelay/internal/health"
	"github.com/relaycore/dynrelay/internal/httpapi"
	"github.com/relaycore/dynrelay/internal/logging"
	"github.com/relaycore/dynrelay/internal/relay"
	"github.com/relaycore/dynrelay/internal/relayengine"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "relayd:", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Layer 1: Foundation (config, logging) ---
	cfg, err := config.NewLoader().Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logging.Configure(cfg.Logging); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	log := logging.New("relayd")
	log.WithField("http_addr", cfg.HTTP.Addr()).Info("starting relayd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Layer 2: Core services (engine adapter, registry, refs) ---
	engine := relayengine.NewMediaMTX(relayengine.MediaMTXConfig{BaseURL: cfg.MediaMTXBaseURL}, logging.New("relayengine"))
	engine.Start(ctx)

	registry := relay.NewRegistry()
	refs := relay.NewMediaRefMap()

	rootURL := cfg.RTSP.RootURL
	if rootURL == "" {
		rootURL = cfg.RTSP.PublicURL("")
	}

	// --- Layer 3: Orchestration (lifecycle, sweeper, bootstrap) ---
	lifecycle := relay.NewLifecycle(registry, refs, engine, rootURL, cfg.Lifecycle.ExpirationTime, cfg.Lifecycle.MaxLifetime, logging.New("relay.lifecycle"))
	sweeper := relay.NewSweeper(registry, lifecycle, logging.New("relay.sweeper"))

	if cfg.Lifecycle.LoadDefaultStreams {
		store, err := buildCameraStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("build camera store: %w", err)
		}
		if err := relay.Bootstrap(ctx, lifecycle, store, logging.New("relay.bootstrap")); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}

	// --- Layer 4: API surface (HTTP, health) ---
	healthServer := health.NewServer(health.Config{Addr: healthAddr(cfg)}, registry, logging.New("health"))
	apiServer := httpapi.NewServer(httpapi.Config{Addr: cfg.HTTP.Addr()}, lifecycle, registry, sweeper, logging.New("httpapi"))

	sweepTicker := time.NewTicker(sweepInterval(cfg))
	defer sweepTicker.Stop()
	go runSweepLoop(ctx, sweepTicker, sweeper, healthServer)

	healthServer.SetReady(true)
	log.Info("relayd ready")

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := apiServer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("http api server: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := healthServer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("health server: %w", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping services")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	services := []struct {
		name string
		stop func(context.Context) error
	}{
		{"http_api", apiServer.Stop},
		{"health", healthServer.Stop},
	}

	var shutdownWG sync.WaitGroup
	shutdownErrCh := make(chan error, len(services))
	for _, svc := range services {
		svc := svc
		shutdownWG.Add(1)
		go func() {
			defer shutdownWG.Done()
			if err := common.StopWithTimeout(svc.name, stoppableFunc(svc.stop), cfg.ShutdownTimeout); err != nil {
				shutdownErrCh <- err
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		shutdownWG.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn("shutdown timed out, forcing exit")
	}
	close(shutdownErrCh)

	engine.Stop()
	wg.Wait()

	var firstErr error
	for err := range shutdownErrCh {
		log.WithError(err).Error("service failed to stop cleanly")
		if firstErr == nil {
			firstErr = err
		}
	}
	for {
		select {
		case err := <-errCh:
			if err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			log.Info("relayd stopped")
			return firstErr
		}
	}
}

type stoppableFunc func(context.Context) error

func (f stoppableFunc) Stop(ctx context.Context) error { return f(ctx) }

func runSweepLoop(ctx context.Context, ticker *time.Ticker, sweeper *relay.Sweeper, healthServer *health.Server) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := sweeper.Sweep(ctx)
			healthServer.RecordSweep(result)
		}
	}
}

func buildCameraStore(ctx context.Context, cfg *config.Config) (camerastore.Store, error) {
	if cfg.CameraStore.TableName != "" {
		return camerastore.NewDynamoDBStore(ctx, cfg.CameraStore.TableName, cfg.CameraStore.PartitionKey, cfg.CameraStore.AWSRegion, logging.New("camerastore"))
	}
	return camerastore.NewFileStore(cfg.CameraStore.FilePath, logging.New("camerastore")), nil
}

func healthAddr(cfg *config.Config) string {
	return fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port+1)
}

func sweepInterval(cfg *config.Config) time.Duration {
	interval := cfg.Lifecycle.ExpirationTime / 2
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}
