// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package segment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopsight/shopsight/internal/logging"
	"github.com/shopsight/shopsight/internal/metrics"
)

// ErrTrainingInProgress indicates a batch segmentation run is active.
var ErrTrainingInProgress = errors.New("segmentation already in progress")

// Config holds segmentation parameters.
type Config struct {
	// Clusters is the k for k-means. Degenerate input reduces it.
	Clusters int
	// MaxIterations bounds the k-means loop.
	MaxIterations int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{Clusters: 6, MaxIterations: 100}
}

// Validate checks config invariants.
func (c Config) Validate() error {
	if c.Clusters < 1 {
		return fmt.Errorf("clusters must be at least 1, got %d", c.Clusters)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	return nil
}

// DataProvider supplies order history for batch segmentation.
// Implemented by the store package.
type DataProvider interface {
	GetTransactions(ctx context.Context) ([]Transaction, error)
}

// Status reports the engine's batch segmentation state.
type Status struct {
	State         string         `json:"state"`
	ModelVersion  int            `json:"model_version"`
	LastTrainedAt time.Time      `json:"last_trained_at,omitempty"`
	Customers     int            `json:"customers"`
	SegmentSizes  map[string]int `json:"segment_sizes,omitempty"`
}

// Engine computes customer segments. The Segment method is a pure,
// deterministic computation over caller-supplied RFM records; Train
// runs the same computation over the full order history from the store.
type Engine struct {
	cfg      Config
	provider DataProvider

	trainMu sync.Mutex
	version atomic.Int64

	mu      sync.RWMutex
	latest  []RFMRecord
	sizes   map[string]int
	trained time.Time
}

// NewEngine creates a segmentation engine. The provider may be nil if
// only the synchronous Segment path is used.
func NewEngine(cfg Config, provider DataProvider) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("segment config: %w", err)
	}
	return &Engine{cfg: cfg, provider: provider}, nil
}

// Segment clusters the given RFM records into up to k segments and
// fills in SegmentID, SegmentName, and RFMScore. Zero records yield an
// empty slice with no error. Deterministic: identical input produces
// identical assignments and labels.
func (e *Engine) Segment(records []RFMRecord, k int) []RFMRecord {
	if len(records) == 0 {
		return []RFMRecord{}
	}
	if k <= 0 {
		k = e.cfg.Clusters
	}

	points := make([]point, len(records))
	for i, r := range records {
		points[i] = point{r.RecencyDays, r.Frequency, r.Monetary}
	}

	result := runKMeans(points, k, e.cfg.MaxIterations)
	ranks := rankClusters(result.centroids)

	labels := make([]string, len(result.centroids))
	for c, centroid := range result.centroids {
		labels[c] = labelFor(centroid[0], centroid[1], centroid[2])
	}

	out := make([]RFMRecord, len(records))
	for i, r := range records {
		cluster := result.assignments[i]
		r.SegmentID = ranks[cluster]
		r.SegmentName = labels[cluster]
		if r.RFMScore == "" {
			r.RFMScore = Score(r.RecencyDays, r.Frequency, r.Monetary)
		}
		out[i] = r
	}
	return out
}

// Train computes segments for all customers from the order history and
// publishes the result. Returns ErrTrainingInProgress when a run is
// already active.
func (e *Engine) Train(ctx context.Context) error {
	if e.provider == nil {
		return errors.New("segment: no data provider configured")
	}
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	started := time.Now()

	transactions, err := e.provider.GetTransactions(ctx)
	if err != nil {
		return fmt.Errorf("loading transactions: %w", err)
	}

	records := e.Segment(ComputeRFM(transactions, time.Now()), e.cfg.Clusters)

	sizes := make(map[string]int)
	for _, r := range records {
		sizes[r.SegmentName]++
	}

	e.mu.Lock()
	e.latest = records
	e.sizes = sizes
	e.trained = time.Now()
	e.mu.Unlock()

	version := e.version.Add(1)
	metrics.SetModelVersion("segment", int(version), time.Now())
	logging.Info().
		Int64("version", version).
		Int("customers", len(records)).
		Dur("elapsed", time.Since(started)).
		Msg("customer segmentation computed")

	return nil
}

// Version returns the batch model version. Zero means never trained.
func (e *Engine) Version() int {
	return int(e.version.Load())
}

// Status reports the batch segmentation state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := Status{State: "untrained", ModelVersion: e.Version()}
	if !e.trained.IsZero() {
		st.State = "ready"
		st.LastTrainedAt = e.trained
		st.Customers = len(e.latest)
		st.SegmentSizes = e.sizes
	}
	return st
}

// Latest returns the most recent batch segmentation, or nil if Train
// has not completed yet.
func (e *Engine) Latest() []RFMRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest
}
