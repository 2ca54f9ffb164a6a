package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/centrio/centrio-backend/api/controllers"
	"github.com/centrio/centrio-backend/api/routes"
	"github.com/centrio/centrio-backend/internal/media"
	"github.com/centrio/centrio-backend/pkg/config"
	"github.com/centrio/centrio-backend/pkg/db"
	"github.com/centrio/centrio-backend/pkg/instance"
	"github.com/centrio/centrio-backend/pkg/logger"
	"github.com/centrio/centrio-backend/pkg/metrics"
	"github.com/centrio/centrio-backend/pkg/migrate"
	"github.com/centrio/centrio-backend/pkg/redis"
	"github.com/centrio/centrio-backend/pkg/storage/local"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	readiness := []controllers.ReadinessCheck{{Name: "database", Pinger: dbClient}}

	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		readiness = append(readiness, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	} else {
		readiness = append(readiness, controllers.ReadinessCheck{Name: "redis"})
	}

	blobStore, err := local.New(local.Options{
		Root:     cfg.Media.StorageRoot,
		MaxBytes: cfg.Media.MaxUploadBytes(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to open blob store", err)
		os.Exit(1)
	}
	readiness = append(readiness, controllers.ReadinessCheck{Name: "blob_store", Pinger: blobStore})

	mediaService, err := media.NewService(media.ServiceParams{
		Repo:          media.NewRepository(dbClient.DB()),
		Blobs:         blobStore,
		Logger:        logg,
		Metrics:       metrics.NewMediaMetrics(prometheus.DefaultRegisterer),
		PublicBaseURL: cfg.Media.PublicBaseURL,
		BatchWorkers:  cfg.Media.BatchWorkers,
		MaxPageSize:   cfg.Media.MaxPageSize,
		StatsCacheTTL: cfg.Media.StatsCacheTTL,
		StatsCacheLen: cfg.Media.StatsCacheSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"instance":     instance.GetID("local"),
		"storage_root": blobStore.Root(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, prometheus.DefaultGatherer, readiness, mediaService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(ctx, "shutting down api server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
