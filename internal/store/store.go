// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

// Package store provides DuckDB-backed data access for the analytics core:
// order aggregates for forecasting, promo and RFM state for discounts, and
// interaction/similarity data for recommendations. It implements the
// provider interfaces declared by the consuming packages.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/andreyyy363/Coffee-Shop/internal/config"
)

// queryTimeout bounds individual data-access queries.
const queryTimeout = 30 * time.Second

// Store wraps the DuckDB connection and provides data access methods.
type Store struct {
	conn   *sql.DB
	cfg    config.DatabaseConfig
	logger zerolog.Logger
}

// New opens the DuckDB database, configures the connection pool and creates
// the schema. An empty path opens an in-memory database.
func New(cfg config.DatabaseConfig, logger zerolog.Logger) (*Store, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	connStr := fmt.Sprintf("?access_mode=read_write&threads=%d&max_memory=%s", numThreads, cfg.MaxMemory)
	if cfg.Path != "" {
		// Ensure the parent directory exists so DuckDB can create the file.
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dbDir, err)
			}
		}
		connStr = cfg.Path + connStr
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With().Str("component", "store").Logger(),
	}
	s.configureConnectionPool()

	if err := s.createSchema(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	s.logger.Info().Str("path", cfg.Path).Msg("Database ready")
	return s, nil
}

func (s *Store) configureConnectionPool() {
	s.conn.SetMaxOpenConns(runtime.NumCPU())
	s.conn.SetMaxIdleConns(2)
	s.conn.SetConnMaxLifetime(time.Hour)
	s.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Conn exposes the underlying connection for health checks.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Ping checks that the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if s.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.conn.PingContext(ctx)
}

// Close flushes the WAL with a checkpoint and closes the connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}

	return s.conn.Close()
}

func closeQuietly(c interface{ Close() error }) {
	_ = c.Close()
}
