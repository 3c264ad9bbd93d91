package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/playout/internal/config"
	"github.com/Nixie-Tech-LLC/playout/internal/engine"
)

func main() {
	// load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, conn, err := InitStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store init")
	}
	if conn != nil {
		defer conn.Close()
	}

	locker, err := InitLocker(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("lock init")
	}

	notifier, disconnect, err := InitNotifier(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("notifier init")
	}
	defer disconnect()

	e := engine.New(store, locker, notifier, engine.Options{
		Location:           cfg.ScheduleLocation,
		HorizonDays:        cfg.HorizonDays,
		Concurrency:        cfg.RecomputeConcurrency,
		HeartbeatFreshness: cfg.HeartbeatFreshness,
		ScreenCacheSize:    cfg.ScreenCacheSize,
		ScreenCacheTTL:     cfg.ScreenCacheTTL,
	})

	jobs, err := e.Jobs(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cron init")
	}
	jobs.Start()
	defer func() { <-jobs.Stop().Done() }()

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, cfg.JWTSecret, e)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("address", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Development() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
