// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

// Package forecast implements demand forecasting for products.
//
// The model is a decomposition fit: a base level (mean demand), a
// linear trend (difference between the first and last week's mean,
// spread over the history), and multiplicative weekday seasonality.
// Confidence intervals come from the in-sample residual standard
// deviation, so forecasts are fully deterministic.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"
)

var (
	// ErrNotFound indicates the product does not exist.
	ErrNotFound = errors.New("product not found")

	// ErrInsufficientHistory indicates the product has less sales
	// history than the minimum required for fitting.
	ErrInsufficientHistory = errors.New("insufficient sales history")

	// ErrInvalidHorizon indicates the requested horizon is negative or
	// exceeds the maximum.
	ErrInvalidHorizon = errors.New("invalid forecast horizon")
)

// zScore95 is the normal quantile for a 95% confidence interval.
const zScore95 = 1.96

// DailyDemand is one day of aggregated units sold.
type DailyDemand struct {
	Date     time.Time
	Quantity float64
}

// Point is a single forecasted day.
type Point struct {
	Date      time.Time `json:"date"`
	Predicted float64   `json:"predicted"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// Series is a complete forecast for one product.
type Series struct {
	ProductID   int       `json:"product_id"`
	HorizonDays int       `json:"horizon_days"`
	Points      []Point   `json:"points"`
	GeneratedAt time.Time `json:"generated_at"`
}

// DataProvider supplies sales history. Implemented by the store
// package. GetDailyDemand returns ErrNotFound (wrapped) for products
// absent from the catalog.
type DataProvider interface {
	GetDailyDemand(ctx context.Context, productID int) ([]DailyDemand, error)
	GetProductStock(ctx context.Context, productID int) (int, error)
	GetActiveProductIDs(ctx context.Context) ([]int, error)
}

// Config holds forecasting parameters.
type Config struct {
	MinHistoryDays  int
	MaxHorizonDays  int
	LeadTimeDays    int
	SafetyStockDays int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MinHistoryDays:  30,
		MaxHorizonDays:  90,
		LeadTimeDays:    7,
		SafetyStockDays: 3,
	}
}

// Validate checks config invariants.
func (c Config) Validate() error {
	if c.MinHistoryDays < 1 {
		return fmt.Errorf("min_history_days must be at least 1, got %d", c.MinHistoryDays)
	}
	if c.MaxHorizonDays < 1 {
		return fmt.Errorf("max_horizon_days must be at least 1, got %d", c.MaxHorizonDays)
	}
	if c.LeadTimeDays < 1 {
		return fmt.Errorf("lead_time_days must be at least 1, got %d", c.LeadTimeDays)
	}
	if c.SafetyStockDays < 0 {
		return fmt.Errorf("safety_stock_days must not be negative, got %d", c.SafetyStockDays)
	}
	return nil
}

// Engine produces demand forecasts from the sales history in the store.
type Engine struct {
	cfg      Config
	provider DataProvider

	// Coverage counters maintained by Train.
	covered   atomic.Int64
	evaluated atomic.Int64
}

// NewEngine creates a forecasting engine.
func NewEngine(cfg Config, provider DataProvider) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("forecast config: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("forecast: data provider is required")
	}
	return &Engine{cfg: cfg, provider: provider}, nil
}

// Forecast predicts daily demand for the product over the horizon.
//
// A negative horizon or one above MaxHorizonDays fails with
// ErrInvalidHorizon. Horizon zero returns an empty series with no
// error. Products with fewer than MinHistoryDays days of history fail
// with ErrInsufficientHistory. Predictions and lower bounds are
// clamped to zero; demand is never negative.
func (e *Engine) Forecast(ctx context.Context, productID, horizonDays int) (*Series, error) {
	if horizonDays < 0 {
		return nil, fmt.Errorf("%w: %d is negative", ErrInvalidHorizon, horizonDays)
	}
	if horizonDays > e.cfg.MaxHorizonDays {
		return nil, fmt.Errorf("%w: %d exceeds maximum %d", ErrInvalidHorizon, horizonDays, e.cfg.MaxHorizonDays)
	}

	history, err := e.provider.GetDailyDemand(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("loading demand history: %w", err)
	}

	series := &Series{
		ProductID:   productID,
		HorizonDays: horizonDays,
		Points:      []Point{},
		GeneratedAt: time.Now(),
	}
	if horizonDays == 0 {
		return series, nil
	}

	filled := fillDaily(history)
	if len(filled) < e.cfg.MinHistoryDays {
		return nil, fmt.Errorf("%w: %d days available, %d required",
			ErrInsufficientHistory, len(filled), e.cfg.MinHistoryDays)
	}

	model := fit(filled)
	lastDate := filled[len(filled)-1].Date

	series.Points = make([]Point, horizonDays)
	for i := 0; i < horizonDays; i++ {
		date := lastDate.AddDate(0, 0, i+1)
		predicted := model.predict(i+1, date.Weekday())
		if predicted < 0 {
			predicted = 0
		}
		lower := predicted - zScore95*model.residualStd
		if lower < 0 {
			lower = 0
		}
		series.Points[i] = Point{
			Date:      date,
			Predicted: round2(predicted),
			Lower:     round2(lower),
			Upper:     round2(predicted + zScore95*model.residualStd),
		}
	}

	return series, nil
}

// Train evaluates forecast coverage: how many active products have
// enough history to fit a model. Forecasts themselves are fitted per
// request, so this is the task's periodic health pass rather than a
// model build.
func (e *Engine) Train(ctx context.Context) error {
	ids, err := e.provider.GetActiveProductIDs(ctx)
	if err != nil {
		return fmt.Errorf("loading products: %w", err)
	}

	covered := 0
	for _, id := range ids {
		history, err := e.provider.GetDailyDemand(ctx, id)
		if err != nil {
			continue
		}
		if len(fillDaily(history)) >= e.cfg.MinHistoryDays {
			covered++
		}
	}

	e.covered.Store(int64(covered))
	e.evaluated.Store(int64(len(ids)))
	return nil
}

// Coverage returns how many of the evaluated products can be forecast.
func (e *Engine) Coverage() (covered, evaluated int) {
	return int(e.covered.Load()), int(e.evaluated.Load())
}

// model is the fitted decomposition.
type model struct {
	base        float64
	trend       float64
	seasonal    [7]float64
	residualStd float64
	historyLen  int
}

// predict returns the point forecast for daysAhead past the end of the
// history.
func (m *model) predict(daysAhead int, weekday time.Weekday) float64 {
	return (m.base + m.trend*float64(daysAhead)) * m.seasonal[weekday]
}

// fit decomposes the series into level, trend, and weekday factors,
// then measures in-sample residuals for the confidence interval.
func fit(history []DailyDemand) *model {
	n := len(history)
	m := &model{historyLen: n}

	var total float64
	for _, d := range history {
		total += d.Quantity
	}
	m.base = total / float64(n)

	// Trend: difference between the last and first week's mean demand,
	// spread across the whole history.
	week := 7
	if n < 2*week {
		week = n / 2
	}
	if week > 0 {
		var firstSum, lastSum float64
		for i := 0; i < week; i++ {
			firstSum += history[i].Quantity
			lastSum += history[n-week+i].Quantity
		}
		m.trend = (lastSum/float64(week) - firstSum/float64(week)) / float64(n)
	}

	// Weekday seasonality: mean per weekday relative to overall mean.
	var sums, counts [7]float64
	for _, d := range history {
		wd := d.Date.Weekday()
		sums[wd] += d.Quantity
		counts[wd]++
	}
	for wd := 0; wd < 7; wd++ {
		if counts[wd] == 0 || m.base == 0 {
			m.seasonal[wd] = 1
			continue
		}
		m.seasonal[wd] = (sums[wd] / counts[wd]) / m.base
	}

	// In-sample residuals against the same prediction rule. Day i of
	// the history is (i+1-n) days "ahead" of the series end.
	var sumSq float64
	for i, d := range history {
		fitted := (m.base + m.trend*float64(i+1-n)) * m.seasonal[d.Date.Weekday()]
		diff := d.Quantity - fitted
		sumSq += diff * diff
	}
	m.residualStd = math.Sqrt(sumSq / float64(n))

	return m
}

// fillDaily sorts history and zero-fills missing days between the
// first and last observation, so weekday factors are not skewed by
// gap days.
func fillDaily(history []DailyDemand) []DailyDemand {
	if len(history) == 0 {
		return nil
	}

	sorted := make([]DailyDemand, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	byDay := make(map[string]float64, len(sorted))
	for _, d := range sorted {
		byDay[d.Date.Format("2006-01-02")] += d.Quantity
	}

	first := truncateDay(sorted[0].Date)
	last := truncateDay(sorted[len(sorted)-1].Date)

	var filled []DailyDemand
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		filled = append(filled, DailyDemand{
			Date:     day,
			Quantity: byDay[day.Format("2006-01-02")],
		})
	}
	return filled
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
