// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

// Package metrics provides Prometheus instrumentation for Shopsight:
// API latency and throughput, store query performance, model training
// runs, and recommendation cache efficiency.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Store metrics

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of DuckDB store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_query_errors_total",
			Help: "Total number of DuckDB store query errors",
		},
		[]string{"operation"},
	)

	StoreRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_rows",
			Help: "Row count per store table, refreshed by the store monitor",
		},
		[]string{"table"},
	)

	// Training metrics

	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_runs_total",
			Help: "Total number of model training runs",
		},
		[]string{"task", "result"}, // result: success, failure, skipped
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Duration of model training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"task"},
	)

	ModelVersion = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "model_version",
			Help: "Current published model version per task",
		},
		[]string{"task"},
	)

	ModelTrainedTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "model_trained_timestamp_seconds",
			Help: "Unix timestamp of the last successful training per task",
		},
		[]string{"task"},
	)

	// Recommendation cache metrics

	RecommendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	RecommendCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	SimilarityIndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "similarity_index_products",
			Help: "Number of products in the current similarity index",
		},
	)
)

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStoreQuery records a store query and its outcome.
func RecordStoreQuery(operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordTraining records a training run outcome for a task.
func RecordTraining(task, result string, duration time.Duration) {
	TrainingRunsTotal.WithLabelValues(task, result).Inc()
	if result == "success" {
		TrainingDuration.WithLabelValues(task).Observe(duration.Seconds())
	}
}

// SetStoreRows publishes the row count of a store table.
func SetStoreRows(table string, rows int64) {
	StoreRows.WithLabelValues(table).Set(float64(rows))
}

// SetModelVersion publishes the current model version for a task.
func SetModelVersion(task string, version int, trainedAt time.Time) {
	ModelVersion.WithLabelValues(task).Set(float64(version))
	ModelTrainedTimestamp.WithLabelValues(task).Set(float64(trainedAt.Unix()))
}
