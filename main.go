package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"clubrank/internal/auth"
	"clubrank/internal/config"
	"clubrank/internal/handler"
	"clubrank/internal/metrics"
	"clubrank/internal/middleware"
	"clubrank/internal/ranking"
	"clubrank/internal/store"
	"clubrank/internal/strava"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config.yaml (optional)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	// Open the credential database
	db, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// Metrics registry
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Upstream client and token refresh
	stravaClient := strava.NewClient(cfg.Strava.ClubID,
		strava.WithTimeout(cfg.Strava.Timeout),
		strava.WithRecorder(collector),
	)
	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RedirectURL:  cfg.Strava.RedirectURL,
	})
	refresher := auth.NewRefresher(oauthCfg, db, cfg.Ranking.RefreshMargin, logger, collector)

	// Ranking engine
	rankingSvc := ranking.NewService(stravaClient, db, refresher,
		ranking.Mode(cfg.Ranking.Mode), logger, collector)

	// HTTP surface
	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:          logger,
		CORSOrigin:      cfg.Server.CORSOrigin,
		RateLimiter:     rateLimiter,
		Rankings:        handler.NewRankingsHandler(rankingSvc),
		Auth:            handler.NewAuthHandler(oauthCfg, db),
		MetricsGatherer: registry,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("port", cfg.Server.Port),
			slog.String("mode", cfg.Ranking.Mode),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
