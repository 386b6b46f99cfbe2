// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shopsight/config.yaml",
	"/etc/shopsight/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envMappings maps environment variables to koanf keys. Only listed
// variables are read; arbitrary env vars never leak into config.
var envMappings = map[string]string{
	"SERVER_HOST":             "server.host",
	"SERVER_PORT":             "server.port",
	"SERVER_READ_TIMEOUT":     "server.read_timeout",
	"SERVER_WRITE_TIMEOUT":    "server.write_timeout",
	"SERVER_SHUTDOWN_TIMEOUT": "server.shutdown_timeout",

	"DATABASE_PATH":       "database.path",
	"DATABASE_MAX_MEMORY": "database.max_memory",
	"DATABASE_THREADS":    "database.threads",
	"SEED_DEMO_DATA":      "database.seed_demo_data",

	"REGISTRY_PATH":          "registry.path",
	"REGISTRY_IN_MEMORY":     "registry.in_memory",
	"REGISTRY_HISTORY_LIMIT": "registry.history_limit",

	"RATE_LIMIT_REQUESTS": "security.rate_limit_requests",
	"RATE_LIMIT_WINDOW":   "security.rate_limit_window",
	"RATE_LIMIT_DISABLED": "security.rate_limit_disabled",
	"CORS_ORIGINS":        "security.cors_origins",

	"LOG_LEVEL":  "logging.level",
	"LOG_FORMAT": "logging.format",
	"LOG_CALLER": "logging.caller",

	"RECOMMEND_ALPHA":                   "recommend.alpha",
	"RECOMMEND_TOP_K":                   "recommend.top_k",
	"RECOMMEND_MIN_INTERACTIONS":        "recommend.min_interactions",
	"RECOMMEND_PURCHASE_EXCLUSION_DAYS": "recommend.purchase_exclusion_days",
	"RECOMMEND_TRENDING_HALF_LIFE":      "recommend.trending_half_life",
	"RECOMMEND_DIVERSITY_LAMBDA":        "recommend.diversity_lambda",
	"RECOMMEND_TRAIN_INTERVAL":          "recommend.train_interval",
	"RECOMMEND_TRAIN_ON_STARTUP":        "recommend.train_on_startup",
	"RECOMMEND_CACHE_TTL":               "recommend.cache_ttl",

	"SEGMENT_CLUSTERS":         "segment.clusters",
	"SEGMENT_TRAIN_INTERVAL":   "segment.train_interval",
	"SEGMENT_TRAIN_ON_STARTUP": "segment.train_on_startup",

	"FORECAST_MIN_HISTORY_DAYS": "forecast.min_history_days",
	"FORECAST_MAX_HORIZON_DAYS": "forecast.max_horizon_days",
	"FORECAST_LEAD_TIME_DAYS":   "forecast.lead_time_days",
	"FORECAST_TRAIN_INTERVAL":   "forecast.train_interval",
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment variables. Precedence: env > file > defaults.
func Load() (*Config, error) {
	return LoadWithPath(configFilePath())
}

// LoadWithPath loads configuration using the given config file path.
// An empty path skips the file layer.
func LoadWithPath(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(key string) string {
		return envMappings[key]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// configFilePath returns the config file to load, or empty if none exists.
func configFilePath() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
