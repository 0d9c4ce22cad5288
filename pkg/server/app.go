package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bandarscan/internal/domain/repository"
	"bandarscan/internal/handler/api"
	"bandarscan/internal/scancache"
	"bandarscan/pkg/config"
	xhttp "bandarscan/pkg/http"
	"bandarscan/pkg/http/middleware"
	applogger "bandarscan/pkg/logger"
)

const sweepInterval = time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    *api.ScanHandler
	cache      *scancache.Manager
	archive    repository.Archive
	publisher  repository.Publisher
	metrics    repository.Metrics
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler *api.ScanHandler,
	cache *scancache.Manager,
	archive repository.Archive,
	publisher repository.Publisher,
	metrics repository.Metrics,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		cache:     cache,
		archive:   archive,
		publisher: publisher,
		metrics:   metrics,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.archive != nil {
		initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := a.archive.Init(initCtx); err != nil {
			initCancel()
			a.log.Error("archive init failed", applogger.Error(err))
			return err
		}
		initCancel()
		a.log.Info("archive ready")
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(middleware.Metrics(a.log, time.Second)),
	)

	go a.sweep(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// sweep drops cache entries past the hard ceiling on a fixed cadence.
func (a *App) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.cache.Cleanup(); n > 0 {
				if a.metrics != nil {
					a.metrics.RecordCache("evict")
				}
				a.log.Debug("scan cache swept", applogger.Int("removed", n))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.log.Warn("archive close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
