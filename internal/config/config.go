// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

// Package config loads and validates Shopsight configuration.
//
// Configuration is layered with koanf: struct defaults first, then an
// optional YAML file, then environment variables. Later layers win.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Shopsight service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Registry RegistryConfig `koanf:"registry"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`

	Recommend RecommendConfig `koanf:"recommend"`
	Segment   SegmentConfig   `koanf:"segment"`
	Forecast  ForecastConfig  `koanf:"forecast"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB settings for the interaction store.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Empty means in-memory.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads limits DuckDB worker threads. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
	// SeedDemoData loads a deterministic demo catalog on startup
	// when the store is empty. Intended for evaluation setups.
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// RegistryConfig holds Badger settings for the model artifact registry.
type RegistryConfig struct {
	Path string `koanf:"path"`
	// InMemory runs Badger without disk persistence. Artifacts are
	// lost on restart; useful for tests and ephemeral deployments.
	InMemory bool `koanf:"in_memory"`
	// HistoryLimit caps retained artifact versions per task.
	HistoryLimit int `koanf:"history_limit"`
}

// SecurityConfig holds API surface hardening settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	// Alpha blends collaborative and content scores:
	// alpha*collaborative + (1-alpha)*content.
	Alpha float64 `koanf:"alpha"`
	// TopK is the number of neighbors retained per product in the
	// similarity index.
	TopK int `koanf:"top_k"`
	// MinInteractions excludes products with fewer interactions from
	// the similarity index.
	MinInteractions int `koanf:"min_interactions"`
	// PurchaseExclusionDays removes recently purchased products from
	// user recommendations.
	PurchaseExclusionDays int `koanf:"purchase_exclusion_days"`
	// TrendingHalfLife is the decay half-life for trending scores.
	TrendingHalfLife time.Duration `koanf:"trending_half_life"`
	// TrendingWindowDays bounds the interaction window for trending.
	TrendingWindowDays int `koanf:"trending_window_days"`
	// DiversityLambda balances relevance against category diversity
	// in the reranking pass. 1.0 disables diversification.
	DiversityLambda float64 `koanf:"diversity_lambda"`
	DefaultLimit    int     `koanf:"default_limit"`
	MaxLimit        int     `koanf:"max_limit"`
	TrainInterval   time.Duration `koanf:"train_interval"`
	TrainOnStartup  bool          `koanf:"train_on_startup"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
}

// SegmentConfig holds customer segmentation settings.
type SegmentConfig struct {
	// Clusters is the k in k-means over (recency, frequency, monetary).
	Clusters       int           `koanf:"clusters"`
	MaxIterations  int           `koanf:"max_iterations"`
	TrainInterval  time.Duration `koanf:"train_interval"`
	TrainOnStartup bool          `koanf:"train_on_startup"`
}

// ForecastConfig holds demand forecasting settings.
type ForecastConfig struct {
	MinHistoryDays int `koanf:"min_history_days"`
	MaxHorizonDays int `koanf:"max_horizon_days"`
	// LeadTimeDays is the default supplier lead time for inventory
	// recommendations.
	LeadTimeDays    int           `koanf:"lead_time_days"`
	SafetyStockDays int           `koanf:"safety_stock_days"`
	TrainInterval   time.Duration `koanf:"train_interval"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8090,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:         "/data/shopsight.duckdb",
			MaxMemory:    "2GB",
			Threads:      0,
			SeedDemoData: false,
		},
		Registry: RegistryConfig{
			Path:         "/data/registry",
			InMemory:     false,
			HistoryLimit: 10,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: RecommendConfig{
			Alpha:                 0.6,
			TopK:                  50,
			MinInteractions:       2,
			PurchaseExclusionDays: 30,
			TrendingHalfLife:      7 * 24 * time.Hour,
			TrendingWindowDays:    90,
			DiversityLambda:       0.7,
			DefaultLimit:          10,
			MaxLimit:              100,
			TrainInterval:         6 * time.Hour,
			TrainOnStartup:        true,
			CacheTTL:              5 * time.Minute,
		},
		Segment: SegmentConfig{
			Clusters:       6,
			MaxIterations:  100,
			TrainInterval:  24 * time.Hour,
			TrainOnStartup: true,
		},
		Forecast: ForecastConfig{
			MinHistoryDays:  30,
			MaxHorizonDays:  90,
			LeadTimeDays:    7,
			SafetyStockDays: 3,
			TrainInterval:   24 * time.Hour,
		},
	}
}

// Validate checks configuration invariants. Called after all layers
// are merged so env overrides are validated too.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Recommend.Alpha < 0 || c.Recommend.Alpha > 1 {
		return fmt.Errorf("recommend.alpha must be in [0, 1], got %g", c.Recommend.Alpha)
	}
	if c.Recommend.TopK < 1 {
		return fmt.Errorf("recommend.top_k must be at least 1, got %d", c.Recommend.TopK)
	}
	if c.Recommend.MinInteractions < 1 {
		return fmt.Errorf("recommend.min_interactions must be at least 1, got %d", c.Recommend.MinInteractions)
	}
	if c.Recommend.DiversityLambda < 0 || c.Recommend.DiversityLambda > 1 {
		return fmt.Errorf("recommend.diversity_lambda must be in [0, 1], got %g", c.Recommend.DiversityLambda)
	}
	if c.Recommend.DefaultLimit < 1 || c.Recommend.DefaultLimit > c.Recommend.MaxLimit {
		return fmt.Errorf("recommend.default_limit must be between 1 and max_limit, got %d", c.Recommend.DefaultLimit)
	}
	if c.Recommend.TrendingHalfLife <= 0 {
		return fmt.Errorf("recommend.trending_half_life must be positive, got %s", c.Recommend.TrendingHalfLife)
	}
	if c.Segment.Clusters < 1 {
		return fmt.Errorf("segment.clusters must be at least 1, got %d", c.Segment.Clusters)
	}
	if c.Segment.MaxIterations < 1 {
		return fmt.Errorf("segment.max_iterations must be at least 1, got %d", c.Segment.MaxIterations)
	}
	if c.Forecast.MinHistoryDays < 1 {
		return fmt.Errorf("forecast.min_history_days must be at least 1, got %d", c.Forecast.MinHistoryDays)
	}
	if c.Forecast.MaxHorizonDays < 1 {
		return fmt.Errorf("forecast.max_horizon_days must be at least 1, got %d", c.Forecast.MaxHorizonDays)
	}
	if c.Registry.HistoryLimit < 1 {
		return fmt.Errorf("registry.history_limit must be at least 1, got %d", c.Registry.HistoryLimit)
	}
	return nil
}
