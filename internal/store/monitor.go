// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopsight/shopsight/internal/metrics"
)

const (
	defaultMonitorInterval = time.Minute
	monitorQueryTimeout    = 10 * time.Second
)

// Monitor is the supervised health service for the store: it pings the
// database and refreshes the per-table row gauges on an interval.
// Failures are logged and retried on the next tick; the supervisor only
// sees the context's terminal error.
type Monitor struct {
	store    *Store
	interval time.Duration
	logger   zerolog.Logger
}

// NewMonitor creates a store monitor. A non-positive interval falls
// back to the default.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMonitor(st *Store, interval time.Duration, logger zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = defaultMonitorInterval
	}
	return &Monitor{
		store:    st,
		interval: interval,
		logger:   logger.With().Str("service", "store-monitor").Logger(),
	}
}

// String implements fmt.Stringer for suture service naming.
func (m *Monitor) String() string { return "store-monitor" }

// Serve implements suture.Service.
func (m *Monitor) Serve(ctx context.Context) error {
	m.collect(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.collect(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Monitor) collect(ctx context.Context) {
	qctx, cancel := context.WithTimeout(ctx, monitorQueryTimeout)
	defer cancel()

	if err := m.store.Ping(qctx); err != nil {
		m.logger.Warn().Err(err).Msg("store ping failed")
		return
	}
	stats, err := m.store.Stats(qctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("store stats failed")
		return
	}

	metrics.SetStoreRows("products", stats.Products)
	metrics.SetStoreRows("interactions", stats.Interactions)
	metrics.SetStoreRows("orders", stats.Orders)

	m.logger.Debug().
		Int64("products", stats.Products).
		Int64("interactions", stats.Interactions).
		Int64("orders", stats.Orders).
		Msg("store stats refreshed")
}
