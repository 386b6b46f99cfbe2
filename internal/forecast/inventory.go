// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Urgency levels for inventory advice.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// InventoryAdvice is a restocking recommendation for one product.
type InventoryAdvice struct {
	ProductID        int     `json:"product_id"`
	CurrentStock     int     `json:"current_stock"`
	DailyDemand      float64 `json:"daily_demand"`
	DaysOfStock      float64 `json:"days_of_stock"`
	ReorderPoint     int     `json:"reorder_point"`
	RecommendedOrder int     `json:"recommended_order"`
	Urgency          string  `json:"urgency"`
}

// InventoryAdvice computes a restocking recommendation from the demand
// forecast over the lead time plus safety window.
func (e *Engine) InventoryAdvice(ctx context.Context, productID int) (*InventoryAdvice, error) {
	window := e.cfg.LeadTimeDays + e.cfg.SafetyStockDays
	if window > e.cfg.MaxHorizonDays {
		window = e.cfg.MaxHorizonDays
	}

	series, err := e.Forecast(ctx, productID, window)
	if err != nil {
		return nil, err
	}

	stock, err := e.provider.GetProductStock(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("loading stock: %w", err)
	}

	var total float64
	for _, p := range series.Points {
		total += p.Predicted
	}
	dailyRate := total / float64(len(series.Points))

	advice := &InventoryAdvice{
		ProductID:    productID,
		CurrentStock: stock,
		DailyDemand:  round2(dailyRate),
		ReorderPoint: int(math.Ceil(dailyRate * float64(window))),
	}

	// Cap so zero-demand products stay JSON-encodable.
	const maxDaysOfStock = 9999
	advice.DaysOfStock = maxDaysOfStock
	if dailyRate > 0 {
		if days := float64(stock) / dailyRate; days < maxDaysOfStock {
			advice.DaysOfStock = round2(days)
		}
	}

	advice.Urgency = urgencyFor(advice.DaysOfStock, e.cfg.LeadTimeDays, window)
	if stock <= advice.ReorderPoint {
		// Order a month of cover beyond the reorder point.
		advice.RecommendedOrder = int(math.Ceil(dailyRate*30)) + advice.ReorderPoint - stock
	}

	return advice, nil
}

// InventoryRecommendations returns advice for every active product that
// needs attention (urgency above low). Products without enough history
// are skipped rather than failing the whole report.
func (e *Engine) InventoryRecommendations(ctx context.Context) ([]InventoryAdvice, error) {
	ids, err := e.provider.GetActiveProductIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}

	advice := make([]InventoryAdvice, 0)
	for _, id := range ids {
		a, err := e.InventoryAdvice(ctx, id)
		if err != nil {
			if errors.Is(err, ErrInsufficientHistory) || errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		if a.Urgency == UrgencyLow {
			continue
		}
		advice = append(advice, *a)
	}
	return advice, nil
}

// urgencyFor grades how soon the product runs out relative to the
// supplier lead time.
func urgencyFor(daysOfStock float64, leadTime, window int) string {
	switch {
	case daysOfStock < float64(leadTime):
		return UrgencyCritical
	case daysOfStock < float64(window):
		return UrgencyHigh
	case daysOfStock < float64(2*window):
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
