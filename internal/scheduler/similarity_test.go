// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/andreyyy363/Coffee-Shop/internal/config"
)

type mockRebuilder struct {
	runs atomic.Int64
	err  error
}

func (m *mockRebuilder) ComputeProductSimilarities(_ context.Context) (int, error) {
	m.runs.Add(1)
	if m.err != nil {
		return 0, m.err
	}
	return 6, nil
}

func TestSimilarityJob_RunsImmediatelyAndTicks(t *testing.T) {
	rebuilder := &mockRebuilder{}
	job := NewSimilarityJob(config.SimilarityConfig{
		Enabled:  true,
		Interval: 20 * time.Millisecond,
	}, rebuilder, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- job.Serve(ctx) }()

	// Poll instead of a fixed sleep (more reliable in CI under load).
	var ticked bool
	for i := 0; i < 50; i++ {
		time.Sleep(10 * time.Millisecond)
		if rebuilder.runs.Load() >= 2 {
			ticked = true
			break
		}
	}
	cancel()

	if !ticked {
		t.Errorf("runs = %d, want immediate run plus at least one tick", rebuilder.runs.Load())
	}
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}
}

func TestSimilarityJob_DisabledWaitsForShutdown(t *testing.T) {
	rebuilder := &mockRebuilder{}
	job := NewSimilarityJob(config.SimilarityConfig{
		Enabled:  false,
		Interval: time.Millisecond,
	}, rebuilder, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- job.Serve(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done

	if rebuilder.runs.Load() != 0 {
		t.Errorf("runs = %d, want 0 when disabled", rebuilder.runs.Load())
	}
}

func TestSimilarityJob_SurvivesRebuildErrors(t *testing.T) {
	rebuilder := &mockRebuilder{err: errors.New("catalog unavailable")}
	job := NewSimilarityJob(config.SimilarityConfig{
		Enabled:  true,
		Interval: 10 * time.Millisecond,
	}, rebuilder, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- job.Serve(ctx) }()

	var retried bool
	for i := 0; i < 50; i++ {
		time.Sleep(10 * time.Millisecond)
		if rebuilder.runs.Load() >= 2 {
			retried = true
			break
		}
	}
	cancel()
	<-done

	if !retried {
		t.Error("job did not keep ticking after a failed rebuild")
	}
}

func TestSimilarityJob_String(t *testing.T) {
	job := NewSimilarityJob(config.SimilarityConfig{}, &mockRebuilder{}, zerolog.Nop())
	if job.String() != "similarity-rebuild" {
		t.Errorf("String() = %q", job.String())
	}
}

func TestSimilarityJob_WithSupervisor(t *testing.T) {
	rebuilder := &mockRebuilder{}
	job := NewSimilarityJob(config.SimilarityConfig{
		Enabled:  true,
		Interval: time.Hour,
	}, rebuilder, zerolog.Nop())

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 3,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          100 * time.Millisecond,
	})
	sup.Add(job)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	var started bool
	for i := 0; i < 10; i++ {
		time.Sleep(20 * time.Millisecond)
		if rebuilder.runs.Load() >= 1 {
			started = true
			break
		}
	}
	if !started {
		t.Error("supervised job never ran")
	}

	cancel()
	<-errCh
}
