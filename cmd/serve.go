package main

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/smarthr/internal/adapters/http/api"
	"github.com/okian/smarthr/internal/adapters/http/middleware"
	"github.com/okian/smarthr/internal/adapters/http/swagger"
	"github.com/okian/smarthr/internal/adapters/llm"
	service "github.com/okian/smarthr/internal/app"
	"github.com/okian/smarthr/internal/config"
	"github.com/okian/smarthr/internal/domain/narrative"
	"github.com/okian/smarthr/pkg/logger"
	"github.com/okian/smarthr/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	requestSlack              = 10 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func newServeCmd(st *cliState) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), st.cfg, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

// buildService opens the store, the narrative generator and the prompt
// templates and assembles the service. The returned cleanup releases the
// generator; the store is closed by Service.Stop.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, func() error, error) {
	st, err := service.OpenStore(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return nil, nil, err
	}

	gen, closeGen, err := llm.New(ctx, llm.Config{
		Provider:  cfg.NarrativeProvider,
		Model:     cfg.DefaultModel(),
		APIKey:    cfg.NarrativeAPIKey,
		BaseURL:   cfg.NarrativeBaseURL,
		Timeout:   cfg.NarrativeTimeout(),
		CacheAddr: cfg.NarrativeCacheAddr,
		CacheTTL:  cfg.NarrativeCacheTTL(),
	}, log.Named("llm"))
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithStore(st),
		service.WithGenerator(gen),
		service.WithWorkerCount(cfg.RescoreWorkers),
		service.WithQueueSize(cfg.RescoreQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithMaxListLimit(cfg.MaxListLimit),
	}
	if cfg.PromptsFile != "" {
		p, err := narrative.LoadPrompts(cfg.PromptsFile)
		if err == nil {
			var b *narrative.Builder
			if b, err = narrative.NewBuilder(p); err == nil {
				opts = append(opts, service.WithPrompts(b))
			}
		}
		if err != nil {
			_ = closeGen()
			_ = st.Close()
			return nil, nil, err
		}
	}
	return service.New(opts...), closeGen, nil
}

// newHandler registers the API and docs on a mux and wraps it in the
// middleware chain.
func newHandler(ctx context.Context, cfg *config.Config, svc api.Dependencies, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc).Register(ctx, mux)

	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Recovery(log),
		middleware.Logging(log),
		middleware.CORS(cfg.AllowedOrigins()),
		middleware.Timeout(cfg.NarrativeTimeout() + requestSlack),
	}
	if cfg.RateLimitRPS > 0 {
		chain = append(chain, middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log).Limit)
	}
	return middleware.Chain(chain...)(mux)
}

func runServe(ctx context.Context, cfg *config.Config, addr string) error {
	log := logger.Get()
	if addr != "" {
		cfg.Addr = addr
	}

	svc, closeGen, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeGen(); err != nil {
			log.Warn(ctx, "failed to close narrative generator", logger.Error(err))
		}
	}()
	if err := svc.Start(ctx); err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, log.Named("http")),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.NarrativeTimeout() + 2*requestSlack,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("store", cfg.StoreDriver),
			logger.String("narrative", cfg.NarrativeProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(serr))
	}
	if serr := svc.Stop(shutdownCtx); serr != nil {
		log.Error(ctx, "service stop failed", logger.Error(serr))
	}

	log.Info(ctx, "server stopped")
	return err
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges GetStats does not touch itself.
func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	stats := svc.GetStats(ctx)
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
}
