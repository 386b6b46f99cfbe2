// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/shopsight/shopsight/internal/config"
)

func newTestRegistry(t *testing.T, historyLimit int) *Registry {
	t.Helper()
	r, err := Open(config.RegistryConfig{InMemory: true, HistoryLimit: historyLimit})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return r
}

func TestPublishAssignsVersions(t *testing.T) {
	r := newTestRegistry(t, 10)

	first, err := r.Publish(TaskRecommend, time.Now(), map[string]float64{"products": 25})
	if err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	if first.Version != 1 {
		t.Errorf("first version = %d, want 1", first.Version)
	}
	if first.ID == "" {
		t.Error("expected a generated artifact ID")
	}

	second, err := r.Publish(TaskRecommend, time.Now(), nil)
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if second.Version != 2 {
		t.Errorf("second version = %d, want 2", second.Version)
	}
	if second.ID == first.ID {
		t.Error("artifact IDs must be unique per run")
	}
}

func TestVersionsIndependentPerTask(t *testing.T) {
	r := newTestRegistry(t, 10)

	if _, err := r.Publish(TaskRecommend, time.Now(), nil); err != nil {
		t.Fatalf("Publish recommend: %v", err)
	}
	if _, err := r.Publish(TaskRecommend, time.Now(), nil); err != nil {
		t.Fatalf("Publish recommend: %v", err)
	}
	seg, err := r.Publish(TaskSegment, time.Now(), nil)
	if err != nil {
		t.Fatalf("Publish segment: %v", err)
	}
	if seg.Version != 1 {
		t.Errorf("segment version = %d, want 1 (tasks version independently)", seg.Version)
	}
}

func TestPublishUnknownTask(t *testing.T) {
	r := newTestRegistry(t, 10)
	if _, err := r.Publish(Task("sorcery"), time.Now(), nil); err == nil {
		t.Error("expected error for unknown task")
	}
}

func TestCurrent(t *testing.T) {
	r := newTestRegistry(t, 10)

	if _, err := r.Current(TaskForecast); !errors.Is(err, ErrNoArtifact) {
		t.Errorf("expected ErrNoArtifact, got %v", err)
	}

	published, err := r.Publish(TaskForecast, time.Now(), map[string]float64{"mape": 0.12})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	current, err := r.Current(TaskForecast)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if current.ID != published.ID || current.Version != 1 {
		t.Errorf("Current = %+v, want published artifact", current)
	}
	if current.Metrics["mape"] != 0.12 {
		t.Errorf("Metrics = %v, want mape 0.12", current.Metrics)
	}
}

func TestHistoryNewestFirstAndPruned(t *testing.T) {
	r := newTestRegistry(t, 3)

	for i := 0; i < 5; i++ {
		if _, err := r.Publish(TaskSegment, time.Now(), nil); err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}

	history, err := r.History(TaskSegment)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3 (pruned to limit)", len(history))
	}
	for i, want := range []int{5, 4, 3} {
		if history[i].Version != want {
			t.Errorf("history[%d].Version = %d, want %d", i, history[i].Version, want)
		}
	}
}

func TestState(t *testing.T) {
	r := newTestRegistry(t, 10)

	state, err := r.State(TaskRecommend, time.Hour)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != StateUntrained {
		t.Errorf("state = %q, want %q", state, StateUntrained)
	}

	if _, err := r.Publish(TaskRecommend, time.Now().Add(-2*time.Hour), nil); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	state, err = r.State(TaskRecommend, time.Hour)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != StateStale {
		t.Errorf("state = %q, want %q for old artifact", state, StateStale)
	}

	state, err = r.State(TaskRecommend, 0)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != StateReady {
		t.Errorf("state = %q, want %q with staleness disabled", state, StateReady)
	}
}
