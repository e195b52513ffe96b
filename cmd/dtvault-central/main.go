package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/shibafu528/dtvault-central/internal/api"
	"github.com/shibafu528/dtvault-central/internal/catalog"
	"github.com/shibafu528/dtvault-central/internal/config"
	"github.com/shibafu528/dtvault-central/internal/encoderclient"
	"github.com/shibafu528/dtvault-central/internal/events"
	xglog "github.com/shibafu528/dtvault-central/internal/log"
	"github.com/shibafu528/dtvault-central/internal/storage"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (TOML); defaults to $DTVAULT_CONFIG")
	flag.Parse()
	if *configPath == "" {
		*configPath = os.Getenv("DTVAULT_CONFIG")
	}

	if *showVersion {
		fmt.Printf("dtvault-central %s (commit %s)\n", version, commit)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "dtvault-central", Version: version})
	logger := xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// No concrete OTLP exporter is wired up (nothing in this deployment
	// names a collector endpoint); the SDK still records spans so
	// otelhttp's per-request spans and their child spans are usable by
	// an in-process test exporter or an operator who adds one later.
	tracerProvider := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tracerProvider)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracerProvider.Shutdown(shutdownCtx)
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "config.load_failed").Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Service: "dtvault-central", Version: version})
	logger = xglog.WithComponent("main")
	logger.Info().Str("event", "startup").Str("version", version).Str("commit", commit).Str("listen", cfg.Server.Listen).Msg("starting dtvault-central")

	store, err := catalog.Open(cfg.Catalog.SnapshotPath)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "catalog.open_failed").Str("path", cfg.Catalog.SnapshotPath).Msg("failed to open catalog")
	}

	backends, err := config.BuildBackends(cfg.Storages)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "storage.mount_failed").Msg("failed to mount storage backends")
	}
	registry, err := storage.NewRegistry(backends...)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "storage.registry_failed").Msg("failed to build storage registry")
	}

	placementCfg, err := config.BuildPlacement(cfg.Placement)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "placement.build_failed").Msg("failed to compile placement rules")
	}

	var encoder *encoderclient.Client
	if cfg.Outlet.EncoderURL != "" {
		encoder = encoderclient.New(cfg.Outlet.EncoderURL, nil)
		logger.Info().Str("encoder_url", cfg.Outlet.EncoderURL).Msg("encoder outlet configured")
	} else {
		logger.Warn().Msg("no encoder_url configured; thumbnails will not be generated")
	}

	pipeline := events.NewPipeline(ctx, events.NewVideoCreatedHandler(store, registry, encoder, cfg.Outlet.SelfBaseURL))
	defer pipeline.Stop()

	srv := &api.Server{
		Catalog:      store,
		Registry:     registry,
		Placement:    placementCfg,
		Events:       pipeline,
		WriteLimiter: config.BuildWriteLimiter(cfg.Ingest),
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Listen).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server exiting")
}
