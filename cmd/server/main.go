// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

// Command server runs the Shopsight ML engine: the DuckDB event store,
// the recommendation, segmentation, and forecasting engines, their
// supervised training loops, and the HTTP API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopsight/shopsight/internal/api"
	"github.com/shopsight/shopsight/internal/config"
	"github.com/shopsight/shopsight/internal/forecast"
	"github.com/shopsight/shopsight/internal/logging"
	"github.com/shopsight/shopsight/internal/recommend"
	"github.com/shopsight/shopsight/internal/recommend/algorithms"
	"github.com/shopsight/shopsight/internal/recommend/reranking"
	"github.com/shopsight/shopsight/internal/registry"
	"github.com/shopsight/shopsight/internal/segment"
	"github.com/shopsight/shopsight/internal/store"
	"github.com/shopsight/shopsight/internal/supervisor"
	"github.com/shopsight/shopsight/internal/trainer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Msg("Starting Shopsight")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Shopsight failed")
	}
}

func run(cfg *config.Config) error {
	// Event store.
	st, err := store.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Warn().Err(err).Msg("Store close failed")
		}
	}()

	if cfg.Database.SeedDemoData {
		seedCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := st.SeedDemoData(seedCtx); err != nil {
			cancel()
			return fmt.Errorf("seeding demo data: %w", err)
		}
		cancel()
	}

	// Model artifact registry.
	reg, err := registry.Open(cfg.Registry)
	if err != nil {
		return fmt.Errorf("opening registry: %w", err)
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logging.Warn().Err(err).Msg("Registry close failed")
		}
	}()

	// Engines.
	recEngine, err := buildRecommendEngine(cfg, st)
	if err != nil {
		return err
	}

	segEngine, err := segment.NewEngine(segment.Config{
		Clusters:      cfg.Segment.Clusters,
		MaxIterations: cfg.Segment.MaxIterations,
	}, st)
	if err != nil {
		return fmt.Errorf("building segmentation engine: %w", err)
	}

	fcEngine, err := forecast.NewEngine(forecast.Config{
		MinHistoryDays:  cfg.Forecast.MinHistoryDays,
		MaxHorizonDays:  cfg.Forecast.MaxHorizonDays,
		LeadTimeDays:    cfg.Forecast.LeadTimeDays,
		SafetyStockDays: cfg.Forecast.SafetyStockDays,
	}, st)
	if err != nil {
		return fmt.Errorf("building forecasting engine: %w", err)
	}

	// Supervision tree: trainers in the training layer, HTTP in the
	// api layer.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	logger := logging.Logger()
	tree.AddDataService(store.NewMonitor(st, time.Minute, logger))

	tree.AddTrainingService(trainer.New(recEngine, reg, trainer.Config{
		Task:           registry.TaskRecommend,
		TrainOnStartup: cfg.Recommend.TrainOnStartup,
		TrainInterval:  cfg.Recommend.TrainInterval,
		SkipErr:        recommend.ErrTrainingInProgress,
		Metrics: func() map[string]float64 {
			status := recEngine.Status()
			return map[string]float64{
				"products":     float64(status.Products),
				"interactions": float64(status.Interactions),
			}
		},
	}, logger))

	tree.AddTrainingService(trainer.New(segEngine, reg, trainer.Config{
		Task:           registry.TaskSegment,
		TrainOnStartup: cfg.Segment.TrainOnStartup,
		TrainInterval:  cfg.Segment.TrainInterval,
		SkipErr:        segment.ErrTrainingInProgress,
		Metrics: func() map[string]float64 {
			return map[string]float64{
				"customers": float64(segEngine.Status().Customers),
			}
		},
	}, logger))

	tree.AddTrainingService(trainer.New(fcEngine, reg, trainer.Config{
		Task:          registry.TaskForecast,
		TrainInterval: cfg.Forecast.TrainInterval,
		Metrics: func() map[string]float64 {
			covered, evaluated := fcEngine.Coverage()
			return map[string]float64{
				"covered_products":   float64(covered),
				"evaluated_products": float64(evaluated),
			}
		},
	}, logger))

	handler := api.NewHandler(recEngine, segEngine, fcEngine, st, reg, cfg)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("addr", server.Addr).
		Msg("Supervisor tree starting")

	errCh := tree.ServeBackground(ctx)
	err = <-errCh
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Shopsight stopped")
	return nil
}

// buildRecommendEngine wires the algorithms into the hybrid engine.
func buildRecommendEngine(cfg *config.Config, st *store.Store) (*recommend.Engine, error) {
	recCfg := recommend.Config{
		Alpha:                 cfg.Recommend.Alpha,
		TopK:                  cfg.Recommend.TopK,
		MinInteractions:       cfg.Recommend.MinInteractions,
		PurchaseExclusionDays: cfg.Recommend.PurchaseExclusionDays,
		TrendingHalfLife:      cfg.Recommend.TrendingHalfLife,
		TrendingWindowDays:    cfg.Recommend.TrendingWindowDays,
		DiversityLambda:       cfg.Recommend.DiversityLambda,
		DefaultLimit:          cfg.Recommend.DefaultLimit,
		MaxLimit:              cfg.Recommend.MaxLimit,
		CacheTTL:              cfg.Recommend.CacheTTL,
	}

	engine, err := recommend.NewEngine(recCfg, st,
		algorithms.NewItemCF(cfg.Recommend.TopK, cfg.Recommend.MinInteractions),
		algorithms.NewContentBased(cfg.Recommend.TopK),
		algorithms.NewPopularity(cfg.Recommend.TrendingHalfLife, cfg.Recommend.TrendingWindowDays),
		reranking.NewMMR(cfg.Recommend.DiversityLambda),
	)
	if err != nil {
		return nil, fmt.Errorf("building recommendation engine: %w", err)
	}
	return engine, nil
}
