// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

// Package scheduler runs periodic background jobs under suture supervision.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreyyy363/Coffee-Shop/internal/config"
	"github.com/andreyyy363/Coffee-Shop/internal/metrics"
)

// SimilarityRebuilder recomputes the product similarity table.
type SimilarityRebuilder interface {
	ComputeProductSimilarities(ctx context.Context) (int, error)
}

// SimilarityJob rebuilds product similarities on a fixed interval.
//
// The job runs once immediately on startup so a fresh deployment serves
// similarity data without waiting a full interval, then ticks at
// cfg.Interval. A failed rebuild is logged and retried on the next tick;
// the job itself never returns an error while the context is alive, so the
// supervisor does not restart-loop on persistent data problems.
type SimilarityJob struct {
	cfg    config.SimilarityConfig
	engine SimilarityRebuilder
	logger zerolog.Logger
}

// NewSimilarityJob creates the supervised similarity rebuild job.
func NewSimilarityJob(cfg config.SimilarityConfig, engine SimilarityRebuilder, logger zerolog.Logger) *SimilarityJob {
	return &SimilarityJob{
		cfg:    cfg,
		engine: engine,
		logger: logger.With().Str("component", "similarity-job").Logger(),
	}
}

// Serve implements suture.Service.
func (j *SimilarityJob) Serve(ctx context.Context) error {
	if !j.cfg.Enabled {
		j.logger.Info().Msg("Similarity rebuild job disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	j.logger.Info().Dur("interval", j.cfg.Interval).Msg("Similarity rebuild job started")
	j.run(ctx)

	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("Similarity rebuild job stopping")
			return ctx.Err()
		case <-ticker.C:
			j.run(ctx)
		}
	}
}

func (j *SimilarityJob) run(ctx context.Context) {
	start := time.Now()
	rows, err := j.engine.ComputeProductSimilarities(ctx)
	metrics.RecordSimilarityRebuild(time.Since(start), rows, err)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		j.logger.Error().Err(err).Msg("Similarity rebuild failed")
		return
	}
	j.logger.Info().
		Int("pairs", rows).
		Dur("took", time.Since(start)).
		Msg("Similarity rebuild completed")
}

// String implements fmt.Stringer for supervisor logging.
func (j *SimilarityJob) String() string {
	return "similarity-rebuild"
}
