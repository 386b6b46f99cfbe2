// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

// Package trainer provides Suture-supervised training loops for the ML
// engines. One Service per task: it optionally trains on startup, then
// retrains on a fixed interval, publishing an artifact to the registry
// after every successful run.
package trainer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopsight/shopsight/internal/metrics"
	"github.com/shopsight/shopsight/internal/registry"
)

// Trainable is the engine contract the trainer drives.
type Trainable interface {
	Train(ctx context.Context) error
}

// ArtifactPublisher records successful training runs. Satisfied by
// *registry.Registry.
type ArtifactPublisher interface {
	Publish(task registry.Task, trainedAt time.Time, metrics map[string]float64) (*registry.Artifact, error)
}

// Config holds training loop settings for one task.
type Config struct {
	Task           registry.Task
	TrainOnStartup bool
	TrainInterval  time.Duration
	// TrainTimeout bounds a single training run. 0 means 30 minutes.
	TrainTimeout time.Duration
	// SkipErr marks an error as "another run is already in flight";
	// such runs count as skipped, not failed.
	SkipErr error
	// Metrics, when set, is called after a successful run to collect
	// quality metrics for the published artifact.
	Metrics func() map[string]float64
}

// Service runs the training loop for one engine under supervision.
type Service struct {
	engine    Trainable
	publisher ArtifactPublisher
	cfg       Config
	logger    zerolog.Logger
	name      string
}

// New creates a training service for the given engine and task.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(engine Trainable, publisher ArtifactPublisher, cfg Config, logger zerolog.Logger) *Service {
	if cfg.TrainInterval <= 0 {
		cfg.TrainInterval = 24 * time.Hour
	}
	if cfg.TrainTimeout <= 0 {
		cfg.TrainTimeout = 30 * time.Minute
	}
	return &Service{
		engine:    engine,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With().Str("service", "trainer").Str("task", string(cfg.Task)).Logger(),
		name:      string(cfg.Task) + "-trainer",
	}
}

// Serve implements the suture.Service interface.
func (s *Service) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.cfg.TrainOnStartup).
		Dur("train_interval", s.cfg.TrainInterval).
		Msg("trainer starting")

	if s.cfg.TrainOnStartup {
		if err := s.train(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial training failed (will retry on schedule)")
		}
	}

	ticker := time.NewTicker(s.cfg.TrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("trainer shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.train(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled training failed")
			}
		}
	}
}

// train runs one training cycle and publishes the resulting artifact.
func (s *Service) train(ctx context.Context) error {
	trainCtx, cancel := context.WithTimeout(ctx, s.cfg.TrainTimeout)
	defer cancel()

	start := time.Now()
	err := s.engine.Train(trainCtx)
	duration := time.Since(start)

	switch {
	case err == nil:
		metrics.RecordTraining(string(s.cfg.Task), "success", duration)
	case s.cfg.SkipErr != nil && errors.Is(err, s.cfg.SkipErr):
		metrics.RecordTraining(string(s.cfg.Task), "skipped", duration)
		s.logger.Debug().Msg("training already in progress, skipped")
		return nil
	default:
		metrics.RecordTraining(string(s.cfg.Task), "failure", duration)
		return err
	}

	var quality map[string]float64
	if s.cfg.Metrics != nil {
		quality = s.cfg.Metrics()
	}
	artifact, err := s.publisher.Publish(s.cfg.Task, time.Now(), quality)
	if err != nil {
		return err
	}

	s.logger.Info().
		Dur("duration", duration).
		Int("version", artifact.Version).
		Str("artifact_id", artifact.ID).
		Msg("training complete")
	return nil
}

// String returns the service name for supervisor logging.
func (s *Service) String() string {
	return s.name
}
