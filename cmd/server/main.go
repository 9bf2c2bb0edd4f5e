// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

// Command server runs the storefront analytics API: sales forecasting,
// inventory planning, personal discounts and product recommendations.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/andreyyy363/Coffee-Shop/internal/api"
	"github.com/andreyyy363/Coffee-Shop/internal/cache"
	"github.com/andreyyy363/Coffee-Shop/internal/config"
	"github.com/andreyyy363/Coffee-Shop/internal/discount"
	"github.com/andreyyy363/Coffee-Shop/internal/forecast"
	"github.com/andreyyy363/Coffee-Shop/internal/inventory"
	"github.com/andreyyy363/Coffee-Shop/internal/logging"
	"github.com/andreyyy363/Coffee-Shop/internal/recommend"
	"github.com/andreyyy363/Coffee-Shop/internal/scheduler"
	"github.com/andreyyy363/Coffee-Shop/internal/store"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logger := logging.Logger()
	logger.Info().
		Str("db_path", cfg.Database.Path).
		Bool("discounts_enabled", cfg.Discount.Enabled).
		Msg("Configuration loaded")

	db, err := store.New(cfg.Database, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	// Services share one in-process cache; the recommendation engine uses
	// it for user preference profiles.
	profileCache := cache.New(cfg.Recommend.ProfileCacheTTL)

	forecaster := forecast.NewService(cfg.Forecast, db, logger)
	planner := inventory.NewPlanner(cfg.Inventory, forecaster, db, logger)
	discounter := discount.NewEngine(cfg.Discount, db, logger)
	recommender := recommend.NewEngine(cfg.Recommend, db, profileCache, logger)

	handler := api.NewHandler(cfg, forecaster, planner, discounter, recommender, db, db, logger)
	router := api.NewRouter(cfg, handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := suture.New("coffeeshop", suture.Spec{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		Timeout:          cfg.Server.ShutdownTimeout,
	})
	sup.Add(scheduler.NewSimilarityJob(cfg.Similarity, recommender, logger))
	sup.Add(scheduler.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting services")
	errCh := sup.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor error")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
