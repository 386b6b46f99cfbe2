// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

// Package registry persists model artifacts in BadgerDB.
//
// Every successful training run publishes an artifact: an identifier,
// a monotonically increasing version per task, the training timestamp,
// and the run's quality metrics. The registry keeps a bounded history
// per task so operators can compare recent runs, and derives the model
// lifecycle state (untrained, ready, stale) from the current artifact.
package registry

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/shopsight/shopsight/internal/config"
	"github.com/shopsight/shopsight/internal/logging"
)

// Task identifies which engine an artifact belongs to.
type Task string

// Known model tasks.
const (
	TaskRecommend Task = "recommend"
	TaskSegment   Task = "segment"
	TaskForecast  Task = "forecast"
)

// Valid reports whether the task is one of the known tasks.
func (t Task) Valid() bool {
	switch t {
	case TaskRecommend, TaskSegment, TaskForecast:
		return true
	}
	return false
}

// Model lifecycle states derived from the registry.
const (
	StateUntrained = "untrained"
	StateTraining  = "training"
	StateReady     = "ready"
	StateStale     = "stale"
)

// ErrNoArtifact indicates no artifact has been published for a task.
var ErrNoArtifact = errors.New("no artifact published")

// Artifact records one published training run.
type Artifact struct {
	ID        string             `json:"id"`
	Task      Task               `json:"task"`
	Version   int                `json:"version"`
	TrainedAt time.Time          `json:"trained_at"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Key prefixes for BadgerDB storage.
const (
	currentKeyPrefix = "artifact:current:"
	versionKeyPrefix = "artifact:version:"
)

// Registry is a BadgerDB-backed model artifact store.
type Registry struct {
	db           *badger.DB
	historyLimit int
}

// Open creates or opens the registry database.
func Open(cfg config.RegistryConfig) (*Registry, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	} else if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("creating registry directory %s: %w", cfg.Path, err)
		}
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}

	limit := cfg.HistoryLimit
	if limit < 1 {
		limit = 1
	}

	return &Registry{db: db, historyLimit: limit}, nil
}

// Close releases the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Publish records a new artifact for the task with the next version
// number and prunes history beyond the retention limit.
func (r *Registry) Publish(task Task, trainedAt time.Time, metrics map[string]float64) (*Artifact, error) {
	if !task.Valid() {
		return nil, fmt.Errorf("unknown task %q", task)
	}

	artifact := &Artifact{
		ID:        uuid.NewString(),
		Task:      task,
		TrainedAt: trainedAt,
		Metrics:   metrics,
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		current, err := readArtifact(txn, currentKey(task))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			artifact.Version = 1
		case err != nil:
			return err
		default:
			artifact.Version = current.Version + 1
		}

		data, err := json.Marshal(artifact)
		if err != nil {
			return fmt.Errorf("marshal artifact: %w", err)
		}
		if err := txn.Set(currentKey(task), data); err != nil {
			return fmt.Errorf("set current: %w", err)
		}
		if err := txn.Set(versionKey(task, artifact.Version), data); err != nil {
			return fmt.Errorf("set version: %w", err)
		}

		return pruneHistory(txn, task, artifact.Version, r.historyLimit)
	})
	if err != nil {
		return nil, fmt.Errorf("publishing %s artifact: %w", task, err)
	}

	logging.Info().
		Str("component", "registry").
		Str("task", string(task)).
		Int("version", artifact.Version).
		Str("artifact_id", artifact.ID).
		Msg("Model artifact published")

	return artifact, nil
}

// Current returns the latest artifact for the task, or ErrNoArtifact.
func (r *Registry) Current(task Task) (*Artifact, error) {
	var artifact *Artifact
	err := r.db.View(func(txn *badger.Txn) error {
		a, err := readArtifact(txn, currentKey(task))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w for task %s", ErrNoArtifact, task)
		}
		if err != nil {
			return err
		}
		artifact = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// History returns retained artifacts for the task, newest first.
func (r *Registry) History(task Task) ([]Artifact, error) {
	var history []Artifact
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(versionKeyPrefix + string(task) + ":")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var artifact Artifact
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &artifact)
			})
			if err != nil {
				return fmt.Errorf("unmarshal artifact: %w", err)
			}
			history = append(history, artifact)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s history: %w", task, err)
	}

	sort.Slice(history, func(i, j int) bool {
		return history[i].Version > history[j].Version
	})
	return history, nil
}

// State derives the lifecycle state for a task. A model older than
// staleAfter is stale but still servable; staleAfter <= 0 disables the
// staleness check.
func (r *Registry) State(task Task, staleAfter time.Duration) (string, error) {
	artifact, err := r.Current(task)
	if errors.Is(err, ErrNoArtifact) {
		return StateUntrained, nil
	}
	if err != nil {
		return "", err
	}
	if staleAfter > 0 && time.Since(artifact.TrainedAt) > staleAfter {
		return StateStale, nil
	}
	return StateReady, nil
}

func currentKey(task Task) []byte {
	return []byte(currentKeyPrefix + string(task))
}

// versionKey zero-pads the version so lexicographic iteration order
// matches numeric order.
func versionKey(task Task, version int) []byte {
	return []byte(fmt.Sprintf("%s%s:%012d", versionKeyPrefix, task, version))
}

func readArtifact(txn *badger.Txn, key []byte) (*Artifact, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	var artifact Artifact
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &artifact)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}
	return &artifact, nil
}

// pruneHistory drops the single version that just fell out of the
// retention window. Deletes in Badger are blind writes, so a missing
// key is a no-op.
func pruneHistory(txn *badger.Txn, task Task, latest, limit int) error {
	expired := latest - limit
	if expired < 1 {
		return nil
	}
	if err := txn.Delete(versionKey(task, expired)); err != nil {
		return fmt.Errorf("pruning version %d: %w", expired, err)
	}
	return nil
}
