// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package store

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates the core tables and indexes. All statements are
// idempotent so startup after a crash is safe.
func (s *Store) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		// Product catalog. Tags are stored comma-joined; the provider
		// layer splits them on read.
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '',
			price DOUBLE NOT NULL,
			stock INTEGER NOT NULL DEFAULT 0,
			popularity DOUBLE NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Implicit feedback events (views, cart adds, purchases,
		// ratings). Weight is resolved at write time so training reads
		// never re-derive it.
		`CREATE TABLE IF NOT EXISTS interactions (
			id UUID PRIMARY KEY,
			user_id INTEGER NOT NULL,
			product_id INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			weight DOUBLE NOT NULL,
			occurred_at TIMESTAMP NOT NULL
		)`,

		// Order lines. Segmentation reads (customer_id, amount,
		// occurred_at); forecasting aggregates quantity per day.
		`CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			customer_id INTEGER NOT NULL,
			product_id INTEGER NOT NULL,
			quantity INTEGER NOT NULL,
			amount DOUBLE NOT NULL,
			occurred_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_interactions_occurred ON interactions(occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id, occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id, occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_product ON orders(product_id, occurred_at)`,
	}

	for _, query := range queries {
		if _, err := s.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
