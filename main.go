package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thumbserver/internal/handlers"
	"thumbserver/internal/logging"
	"thumbserver/internal/media"
	"thumbserver/internal/memory"
	"thumbserver/internal/metrics"
	"thumbserver/internal/middleware"
	"thumbserver/internal/pipeline"
	"thumbserver/internal/startup"
	"thumbserver/internal/workers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Cap the Go heap below the container limit before decoding starts
	memory.ConfigureFromEnv()

	if config.MetricsEnabled {
		metrics.InitializeMetrics()
	}

	// Initialize libvips for accelerated raster decoding (optional)
	media.InitVips()
	defer media.ShutdownVips()
	startup.LogVipsInit(media.IsVipsAvailable())

	// Check external video tooling
	startup.LogFFmpegInit()

	// Worker pool bounds concurrent pipeline runs
	workerCount := config.PipelineWorkers
	if workerCount < 1 {
		workerCount = workers.ForCPU(0)
	}
	startup.LogWorkerPoolInit(workerCount)
	pool := workers.NewPool(workerCount)

	gen := pipeline.NewGenerator(pool, config.VideoCandidates)
	h := handlers.New(gen, pool, config.MediaDir)

	// Setup router
	router := setupRouter(h)
	startup.LogHTTPRoutes(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	var handler http.Handler = middleware.Logger(loggingConfig)(router)

	// Apply metrics middleware
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics are served on their own port to stay off the public surface
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Media routes
	r.HandleFunc("/thumbnail/{path:.*}", h.GetThumbnail).Methods("GET")
	r.HandleFunc("/media/{path:.*}", h.GetMedia).Methods("GET")
	r.HandleFunc("/raw/{path:.*}", h.GetRaw).Methods("GET")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
