package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/emso-eric/geo2coverage/internal/cache"
	"github.com/emso-eric/geo2coverage/internal/catalog"
	"github.com/emso-eric/geo2coverage/internal/config"
	"github.com/emso-eric/geo2coverage/internal/erddap"
	httphandler "github.com/emso-eric/geo2coverage/internal/http"
	"github.com/emso-eric/geo2coverage/internal/lifecycle"
	"github.com/emso-eric/geo2coverage/internal/observability"
	"github.com/emso-eric/geo2coverage/internal/service"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	erddapClient, err := erddap.NewClient(cfg.ErddapURL, cfg.ErddapTimeout)
	if err != nil {
		logger.Fatal("erddap client", zap.Error(err))
	}
	logger.Info("erddap upstream", zap.String("url", cfg.ErddapURL), zap.Duration("timeout", cfg.ErddapTimeout))

	datasetCatalog := catalog.New(cfg.PublicURL, erddapClient.SearchAllDatasets,
		catalog.WithRefreshInterval(cfg.CatalogRefreshInterval))

	var responseCache cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		responseCache = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	case "none":
		logger.Info("cache backend: none")
	default:
		responseCache = cache.NewInMemoryCache()
		logger.Info("cache backend: in_memory")
	}

	coverageService := service.NewCoverageService(erddapClient, responseCache, cfg.CacheTTL, cfg.VocabHost)

	healthConfig := &httphandler.HealthConfig{
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
		StartTime:        time.Now(),
	}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	handler := httphandler.NewHandler(coverageService, datasetCatalog, healthConfig, logger)

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.Use(httphandler.CORSMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	api := router.PathPrefix(cfg.BasePath).Subrouter()
	api.Use(httphandler.RateLimitMiddleware(limiter))
	api.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	api.HandleFunc("/help", handler.GetHelp).Methods("GET")
	api.HandleFunc("/datasets", handler.GetDatasets).Methods("GET")
	api.HandleFunc("/{datasetId}", handler.GetCoverage).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", ":"+cfg.ServerPort),
			zap.String("base_path", cfg.BasePath))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
