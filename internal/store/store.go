// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

// Package store provides the DuckDB-backed event and catalog store.
//
// It owns the schema (products, interactions, orders) and implements
// the data provider interfaces consumed by the recommendation,
// segmentation, and forecasting engines. All reads are plain SQL over
// database/sql; DuckDB's columnar execution makes the aggregation
// queries cheap even on large interaction tables.
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

	"github.com/shopsight/shopsight/internal/config"
	"github.com/shopsight/shopsight/internal/logging"
	"github.com/shopsight/shopsight/internal/metrics"
)

// Store wraps the DuckDB connection and provides data access methods.
type Store struct {
	conn *sql.DB
	cfg  config.DatabaseConfig
}

// New opens the DuckDB database, configures the connection pool, and
// initializes the schema. An empty path opens an in-memory database.
func New(cfg config.DatabaseConfig) (*Store, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}

	if cfg.Path != "" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dbDir, err)
			}
		}
	}

	// Auto-install/auto-load stay off so startup cannot hang on a
	// network fetch in restricted environments.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{conn: conn, cfg: cfg}
	if err := s.createSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	logging.Info().
		Str("component", "store").
		Str("path", describePath(cfg.Path)).
		Int("threads", numThreads).
		Msg("Store opened")

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Stats summarizes table sizes for health reporting.
type Stats struct {
	Products     int64 `json:"products"`
	Interactions int64 `json:"interactions"`
	Orders       int64 `json:"orders"`
}

// Stats returns row counts for the core tables.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	start := time.Now()
	var stats Stats
	err := s.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM interactions),
			(SELECT COUNT(*) FROM orders)`,
	).Scan(&stats.Products, &stats.Interactions, &stats.Orders)
	metrics.RecordStoreQuery("stats", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	return &stats, nil
}

func describePath(path string) string {
	if path == "" {
		return ":memory:"
	}
	return path
}
