// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopsight/shopsight/internal/forecast"
	"github.com/shopsight/shopsight/internal/metrics"
	"github.com/shopsight/shopsight/internal/recommend"
	"github.com/shopsight/shopsight/internal/segment"
)

// Compile-time checks that the store satisfies every engine's data
// provider contract.
var (
	_ recommend.DataProvider = (*Store)(nil)
	_ segment.DataProvider   = (*Store)(nil)
	_ forecast.DataProvider  = (*Store)(nil)
)

// GetInteractions returns interaction events at or after the given
// time, oldest first. A zero time returns the full history.
func (s *Store) GetInteractions(ctx context.Context, since time.Time) ([]recommend.Interaction, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, `
		SELECT user_id, product_id, event_type, weight, occurred_at
		FROM interactions
		WHERE occurred_at >= ?
		ORDER BY occurred_at`, since)
	metrics.RecordStoreQuery("get_interactions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("querying interactions: %w", err)
	}
	defer rows.Close()

	var interactions []recommend.Interaction
	for rows.Next() {
		var in recommend.Interaction
		var eventType string
		if err := rows.Scan(&in.UserID, &in.ProductID, &eventType, &in.Weight, &in.OccurredAt); err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		in.Type = recommend.EventType(eventType)
		interactions = append(interactions, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interactions: %w", err)
	}
	return interactions, nil
}

// GetProducts returns the active product catalog ordered by ID.
func (s *Store) GetProducts(ctx context.Context) ([]recommend.Product, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, name, category, tags, price, stock, popularity, active
		FROM products
		WHERE active
		ORDER BY id`)
	metrics.RecordStoreQuery("get_products", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []recommend.Product
	for rows.Next() {
		var p recommend.Product
		var tags string
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &tags, &p.Price, &p.Stock, &p.Popularity, &p.Active); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		p.Tags = splitTags(tags)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return products, nil
}

// GetTransactions returns every order line as a segmentation
// transaction, oldest first.
func (s *Store) GetTransactions(ctx context.Context) ([]segment.Transaction, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, `
		SELECT customer_id, amount, occurred_at
		FROM orders
		ORDER BY occurred_at`)
	metrics.RecordStoreQuery("get_transactions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var transactions []segment.Transaction
	for rows.Next() {
		var tx segment.Transaction
		if err := rows.Scan(&tx.CustomerID, &tx.Amount, &tx.OccurredAt); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}
	return transactions, nil
}

// GetDailyDemand returns units sold per day for a product. Unknown
// products fail with forecast.ErrNotFound; a known product with no
// orders returns an empty history.
func (s *Store) GetDailyDemand(ctx context.Context, productID int) ([]forecast.DailyDemand, error) {
	start := time.Now()

	var exists bool
	err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`, productID).Scan(&exists)
	if err != nil {
		metrics.RecordStoreQuery("get_daily_demand", time.Since(start), err)
		return nil, fmt.Errorf("checking product: %w", err)
	}
	if !exists {
		metrics.RecordStoreQuery("get_daily_demand", time.Since(start), nil)
		return nil, fmt.Errorf("%w: product %d", forecast.ErrNotFound, productID)
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT DATE_TRUNC('day', occurred_at) AS day, SUM(quantity)
		FROM orders
		WHERE product_id = ?
		GROUP BY day
		ORDER BY day`, productID)
	metrics.RecordStoreQuery("get_daily_demand", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("querying daily demand: %w", err)
	}
	defer rows.Close()

	var demand []forecast.DailyDemand
	for rows.Next() {
		var d forecast.DailyDemand
		if err := rows.Scan(&d.Date, &d.Quantity); err != nil {
			return nil, fmt.Errorf("scanning daily demand: %w", err)
		}
		demand = append(demand, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating daily demand: %w", err)
	}
	return demand, nil
}

// GetProductStock returns current stock for a product.
func (s *Store) GetProductStock(ctx context.Context, productID int) (int, error) {
	start := time.Now()
	var stock int
	err := s.conn.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE id = ?`, productID).Scan(&stock)
	metrics.RecordStoreQuery("get_product_stock", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: product %d", forecast.ErrNotFound, productID)
	}
	if err != nil {
		return 0, fmt.Errorf("querying stock: %w", err)
	}
	return stock, nil
}

// GetActiveProductIDs returns the IDs of all active products.
func (s *Store) GetActiveProductIDs(ctx context.Context) ([]int, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id FROM products WHERE active ORDER BY id`)
	metrics.RecordStoreQuery("get_active_product_ids", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("querying product IDs: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning product ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product IDs: %w", err)
	}
	return ids, nil
}

func splitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
