package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/openlearnhq/experiments/internal/api"
	"github.com/openlearnhq/experiments/internal/catalog"
	"github.com/openlearnhq/experiments/internal/commerce"
	"github.com/openlearnhq/experiments/internal/config"
	"github.com/openlearnhq/experiments/internal/enrollment"
	"github.com/openlearnhq/experiments/internal/experiments"
	"github.com/openlearnhq/experiments/internal/flags"
	"github.com/openlearnhq/experiments/internal/telemetry"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}
	if cfg.AppEnv == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	telemetry.Init()

	ctx := context.Background()

	enrollmentStore, err := enrollment.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("enrollment store init failed")
	}
	defer enrollmentStore.Close()

	flagStore, err := flags.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("flag store init failed")
	}
	defer flagStore.Close()

	courses, err := experiments.LoadCourseFile(cfg.CourseFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CourseFile).Msg("course file load failed")
	}

	var cat catalog.Catalog
	if cfg.CatalogURL != "" {
		cat = catalog.NewClient(cfg.CatalogURL)
	} else {
		log.Warn().Msg("CATALOG_URL not set; program metadata will be empty")
		cat = catalog.NewStaticCatalog()
	}

	svc := experiments.NewService(experiments.Config{
		Enrollments: enrollmentStore,
		Catalog:     cat,
		Commerce:    commerce.NewService(cfg.EcommerceURL),
		Flags:       flags.NewEvaluator(flagStore, cfg.RolloutSalt, log),
		Log:         log,
	})

	apiServer := api.NewServer(svc, courses, flagStore, cfg.Env, cfg.AdminAPIKey, log)
	apiServer.RateLimitPerIP = cfg.RateLimitPerIP
	apiServer.RateLimitPerKey = cfg.RateLimitPerKey

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	log.Info().Msg("stopped")
}
