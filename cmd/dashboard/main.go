// Package main provides the entry point for the link analytics dashboard service.
//
//	@title			Link Analytics Dashboard API
//	@version		1.0.0
//	@description	Chart-ready click analytics for shortened links: ranked breakdowns, time series, map regions and share-link access.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Authorization header forwarded to the shortener backend. Format: "Bearer {token}"
package main

import (
	"context"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"LinkTelemetry-Dashboard/internal/config"
	"LinkTelemetry-Dashboard/internal/dashboard"
	"LinkTelemetry-Dashboard/internal/geo"
	httpHandler "LinkTelemetry-Dashboard/internal/handler/http"
	"LinkTelemetry-Dashboard/internal/statsapi"
	"LinkTelemetry-Dashboard/internal/view"
	"LinkTelemetry-Dashboard/pkg/logger"
	"LinkTelemetry-Dashboard/pkg/useragent"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting link analytics dashboard service", zap.String("env", cfg.Env))

	palette := view.Palette{
		LowColor:    cfg.Dashboard.LowColor,
		HighColor:   cfg.Dashboard.HighColor,
		NoDataColor: cfg.Dashboard.NoDataColor,
		MinRadius:   cfg.Dashboard.MinRadius,
		MaxRadius:   cfg.Dashboard.MaxRadius,
	}
	if err := palette.Validate(); err != nil {
		log.Fatal("invalid dashboard palette", zap.Error(err))
	}

	// Initialize the User-Agent label normalizer (optional: the dashboard
	// keeps raw labels when the regexes file is missing)
	var normalizer dashboard.LabelNormalizer
	if n, err := useragent.NewNormalizer(cfg.Dashboard.UARegexesPath, log); err != nil {
		log.Warn("failed to initialize User-Agent normalizer, keeping raw labels", zap.Error(err))
	} else {
		normalizer = n
	}

	// City reference dataset cache, shared by all views for the lifetime
	// of the process
	cityCache := geo.NewReferenceCache(cfg.CityDataset.URL, cfg.CityDataset.Timeout, log)
	if cfg.CityDataset.Preload {
		go func() {
			warmCtx, cancel := context.WithTimeout(context.Background(), cfg.CityDataset.Timeout)
			defer cancel()
			if _, err := cityCache.Load(warmCtx); err != nil {
				log.Warn("city dataset preload failed, will retry on first request", zap.Error(err))
			}
		}()
	}

	// Upstream stats client and orchestration service
	statsClient := statsapi.New(statsapi.Config{
		BaseURL: cfg.StatsAPI.BaseURL,
		Timeout: cfg.StatsAPI.Timeout,
	}, log)

	dashboardService := dashboard.New(statsClient, cityCache, normalizer, dashboard.Config{
		PageSize: cfg.Dashboard.PageSize,
		Palette:  palette,
	}, log)

	// Boundary HTTP server; the streaming endpoint polls the upstream on
	// the configured interval per open connection
	apiServer := httpHandler.NewServer(dashboardService, statsClient, statsapi.PollerConfig{
		Interval:     cfg.StatsAPI.PollInterval,
		FetchTimeout: cfg.StatsAPI.Timeout,
	}, cityCache, log)

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.HTTPServer.Port),
		Handler:      apiServer.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	log.Info("starting HTTP server", zap.String("address", httpServer.Addr))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down dashboard service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}
}
