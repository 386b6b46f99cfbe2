// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package store

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopsight/shopsight/internal/logging"
	"github.com/shopsight/shopsight/internal/recommend"
)

// seedRandSeed fixes the demo data generator so repeated runs against
// a fresh database produce identical content.
const seedRandSeed = 7

// SeedDemoData populates an empty store with a deterministic demo
// catalog and 90 days of synthetic shopping activity. A store that
// already has products is left untouched.
func (s *Store) SeedDemoData(ctx context.Context) error {
	stats, err := s.Stats(ctx)
	if err != nil {
		return fmt.Errorf("checking store state: %w", err)
	}
	if stats.Products > 0 {
		logging.Debug().Str("component", "store").Msg("Store already populated, skipping demo seed")
		return nil
	}

	logging.Info().Str("component", "store").Msg("Seeding demo data")
	rng := rand.New(rand.NewSource(seedRandSeed))

	products := demoCatalog()
	if err := s.UpsertProducts(ctx, products); err != nil {
		return fmt.Errorf("seeding products: %w", err)
	}

	const (
		numUsers      = 40
		daysOfHistory = 90
		eventsPerDay  = 60
	)

	var interactions []recommend.Interaction
	var orders []OrderLine
	now := time.Now()

	for day := daysOfHistory; day >= 1; day-- {
		dayStart := now.AddDate(0, 0, -day)
		for e := 0; e < eventsPerDay; e++ {
			userID := 1 + rng.Intn(numUsers)
			product := products[biasedIndex(rng, len(products))]
			occurredAt := dayStart.Add(time.Duration(rng.Intn(24*3600)) * time.Second)

			// Roughly: two thirds views, a fifth cart adds, the rest
			// purchases.
			roll := rng.Float64()
			eventType := recommend.EventView
			switch {
			case roll > 0.85:
				eventType = recommend.EventPurchase
			case roll > 0.65:
				eventType = recommend.EventCart
			}

			interactions = append(interactions, recommend.Interaction{
				UserID:     userID,
				ProductID:  product.ID,
				Type:       eventType,
				Weight:     eventType.DefaultWeight(),
				OccurredAt: occurredAt,
			})

			if eventType == recommend.EventPurchase {
				quantity := 1 + rng.Intn(3)
				orders = append(orders, OrderLine{
					CustomerID: userID,
					ProductID:  product.ID,
					Quantity:   quantity,
					Amount:     product.Price * float64(quantity),
					OccurredAt: occurredAt,
				})
			}
		}
	}

	if err := s.InsertInteractions(ctx, interactions); err != nil {
		return fmt.Errorf("seeding interactions: %w", err)
	}
	if err := s.InsertOrders(ctx, orders); err != nil {
		return fmt.Errorf("seeding orders: %w", err)
	}

	logging.Info().
		Str("component", "store").
		Int("products", len(products)).
		Int("interactions", len(interactions)).
		Int("orders", len(orders)).
		Msg("Demo data seeded")
	return nil
}

// biasedIndex skews selection toward low indexes so the demo catalog
// has clear bestsellers and a long tail.
func biasedIndex(rng *rand.Rand, n int) int {
	idx := int(rng.Float64() * rng.Float64() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

func demoCatalog() []recommend.Product {
	type entry struct {
		name     string
		category string
		tags     []string
		price    float64
	}
	entries := []entry{
		{"Wireless Earbuds", "electronics", []string{"audio", "wireless", "portable"}, 79.99},
		{"Smart Watch", "electronics", []string{"wearable", "fitness", "wireless"}, 199.99},
		{"Bluetooth Speaker", "electronics", []string{"audio", "wireless"}, 49.99},
		{"USB-C Hub", "electronics", []string{"accessory", "office"}, 34.99},
		{"Mechanical Keyboard", "electronics", []string{"accessory", "office", "gaming"}, 129.99},
		{"Gaming Mouse", "electronics", []string{"accessory", "gaming"}, 59.99},
		{"4K Webcam", "electronics", []string{"video", "office"}, 89.99},
		{"Running Shoes", "sports", []string{"footwear", "running"}, 119.99},
		{"Yoga Mat", "sports", []string{"fitness", "yoga"}, 29.99},
		{"Dumbbell Set", "sports", []string{"fitness", "strength"}, 149.99},
		{"Cycling Helmet", "sports", []string{"cycling", "safety"}, 64.99},
		{"Water Bottle", "sports", []string{"hydration", "portable"}, 14.99},
		{"Espresso Machine", "home", []string{"kitchen", "coffee"}, 299.99},
		{"Air Fryer", "home", []string{"kitchen", "cooking"}, 109.99},
		{"Robot Vacuum", "home", []string{"cleaning", "smart"}, 249.99},
		{"Desk Lamp", "home", []string{"lighting", "office"}, 39.99},
		{"Throw Blanket", "home", []string{"bedroom", "comfort"}, 24.99},
		{"Cast Iron Skillet", "home", []string{"kitchen", "cooking"}, 44.99},
		{"Denim Jacket", "fashion", []string{"outerwear", "casual"}, 89.99},
		{"Leather Belt", "fashion", []string{"accessory", "casual"}, 34.99},
		{"Canvas Sneakers", "fashion", []string{"footwear", "casual"}, 54.99},
		{"Wool Scarf", "fashion", []string{"accessory", "winter"}, 27.99},
		{"Novel Bundle", "books", []string{"fiction", "bundle"}, 39.99},
		{"Cookbook", "books", []string{"cooking", "kitchen"}, 32.99},
		{"Travel Guide", "books", []string{"travel", "reference"}, 21.99},
	}

	products := make([]recommend.Product, len(entries))
	for i, e := range entries {
		products[i] = recommend.Product{
			ID:       i + 1,
			Name:     e.name,
			Category: e.category,
			Tags:     e.tags,
			Price:    e.price,
			Stock:    50 + (i*37)%200,
			Active:   true,
		}
	}
	return products
}
