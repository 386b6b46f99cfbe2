// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shopsight/shopsight/internal/metrics"
	"github.com/shopsight/shopsight/internal/recommend"
)

// UpsertProducts inserts or replaces catalog entries.
func (s *Store) UpsertProducts(ctx context.Context, products []recommend.Product) error {
	if len(products) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO products (id, name, category, tags, price, stock, popularity, active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Name, p.Category,
			strings.Join(p.Tags, ","), p.Price, p.Stock, p.Popularity, p.Active); err != nil {
			return fmt.Errorf("upserting product %d: %w", p.ID, err)
		}
	}

	err = tx.Commit()
	metrics.RecordStoreQuery("upsert_products", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("committing products: %w", err)
	}
	return nil
}

// InsertInteractions appends interaction events. Events without a
// weight get the default weight for their type.
func (s *Store) InsertInteractions(ctx context.Context, interactions []recommend.Interaction) error {
	if len(interactions) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO interactions (id, user_id, product_id, event_type, weight, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, in := range interactions {
		weight := in.Weight
		if weight == 0 {
			weight = in.Type.DefaultWeight()
		}
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), in.UserID, in.ProductID,
			string(in.Type), weight, in.OccurredAt); err != nil {
			return fmt.Errorf("inserting interaction: %w", err)
		}
	}

	err = tx.Commit()
	metrics.RecordStoreQuery("insert_interactions", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("committing interactions: %w", err)
	}
	return nil
}

// OrderLine is a purchase record to store.
type OrderLine struct {
	CustomerID int
	ProductID  int
	Quantity   int
	Amount     float64
	OccurredAt time.Time
}

// InsertOrders appends order lines.
func (s *Store) InsertOrders(ctx context.Context, orders []OrderLine) error {
	if len(orders) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO orders (id, customer_id, product_id, quantity, amount, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), o.CustomerID, o.ProductID,
			o.Quantity, o.Amount, o.OccurredAt); err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}
	}

	err = tx.Commit()
	metrics.RecordStoreQuery("insert_orders", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("committing orders: %w", err)
	}
	return nil
}
