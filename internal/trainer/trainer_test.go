// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package trainer

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopsight/shopsight/internal/logging"
	"github.com/shopsight/shopsight/internal/registry"
)

type mockEngine struct {
	trains  atomic.Int64
	trained chan struct{}
	err     error
}

func (m *mockEngine) Train(_ context.Context) error {
	m.trains.Add(1)
	if m.trained != nil {
		select {
		case m.trained <- struct{}{}:
		default:
		}
	}
	return m.err
}

type mockPublisher struct {
	published atomic.Int64
	last      atomic.Pointer[registry.Artifact]
}

func (m *mockPublisher) Publish(task registry.Task, trainedAt time.Time, quality map[string]float64) (*registry.Artifact, error) {
	artifact := &registry.Artifact{
		ID:        "test-artifact",
		Task:      task,
		Version:   int(m.published.Add(1)),
		TrainedAt: trainedAt,
		Metrics:   quality,
	}
	m.last.Store(artifact)
	return artifact, nil
}

func TestServeTrainsOnStartup(t *testing.T) {
	engine := &mockEngine{trained: make(chan struct{}, 1)}
	publisher := &mockPublisher{}
	svc := New(engine, publisher, Config{
		Task:           registry.TaskRecommend,
		TrainOnStartup: true,
		TrainInterval:  time.Hour,
	}, logging.NewTestLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	select {
	case <-engine.trained:
	case <-time.After(5 * time.Second):
		t.Fatal("startup training did not run")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop on cancel")
	}

	if publisher.published.Load() != 1 {
		t.Errorf("published %d artifacts, want 1", publisher.published.Load())
	}
}

func TestServeSkipsStartupTrainingWhenDisabled(t *testing.T) {
	engine := &mockEngine{}
	svc := New(engine, &mockPublisher{}, Config{
		Task:          registry.TaskSegment,
		TrainInterval: time.Hour,
	}, logging.NewTestLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if engine.trains.Load() != 0 {
		t.Errorf("trained %d times, want 0", engine.trains.Load())
	}
}

func TestTrainPublishesQualityMetrics(t *testing.T) {
	engine := &mockEngine{}
	publisher := &mockPublisher{}
	svc := New(engine, publisher, Config{
		Task:    registry.TaskForecast,
		Metrics: func() map[string]float64 { return map[string]float64{"products": 12} },
	}, logging.NewTestLogger(io.Discard))

	if err := svc.train(context.Background()); err != nil {
		t.Fatalf("train: %v", err)
	}

	artifact := publisher.last.Load()
	if artifact == nil {
		t.Fatal("no artifact published")
	}
	if artifact.Metrics["products"] != 12 {
		t.Errorf("artifact metrics = %v, want products 12", artifact.Metrics)
	}
}

func TestTrainSkipErrorNotFailure(t *testing.T) {
	skip := errors.New("training in progress")
	engine := &mockEngine{err: skip}
	publisher := &mockPublisher{}
	svc := New(engine, publisher, Config{
		Task:    registry.TaskRecommend,
		SkipErr: skip,
	}, logging.NewTestLogger(io.Discard))

	if err := svc.train(context.Background()); err != nil {
		t.Errorf("skipped run must not report an error, got %v", err)
	}
	if publisher.published.Load() != 0 {
		t.Error("skipped run must not publish an artifact")
	}
}

func TestTrainFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	engine := &mockEngine{err: boom}
	svc := New(engine, &mockPublisher{}, Config{Task: registry.TaskRecommend}, logging.NewTestLogger(io.Discard))

	if err := svc.train(context.Background()); !errors.Is(err, boom) {
		t.Errorf("train returned %v, want boom", err)
	}
}

func TestStringNamesTask(t *testing.T) {
	svc := New(&mockEngine{}, &mockPublisher{}, Config{Task: registry.TaskSegment}, logging.NewTestLogger(io.Discard))
	if svc.String() != "segment-trainer" {
		t.Errorf("String() = %q, want segment-trainer", svc.String())
	}
}
