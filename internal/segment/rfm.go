// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

// Package segment implements RFM customer segmentation.
//
// Customers are described by three features computed from their order
// history: recency (days since last order), frequency (order count),
// and monetary (total spend). K-means clusters customers in
// standardized RFM space; cluster labels are derived from centroid
// values by fixed rules, so the same input always yields the same
// segment names regardless of cluster enumeration order.
package segment

import (
	"fmt"
	"sort"
	"time"
)

// Transaction is a single completed order, the input to RFM computation.
type Transaction struct {
	CustomerID int
	Amount     float64
	OccurredAt time.Time
}

// RFMRecord holds a customer's RFM features and segment assignment.
type RFMRecord struct {
	CustomerID  int     `json:"customer_id"`
	RecencyDays float64 `json:"recency_days"`
	Frequency   float64 `json:"frequency"`
	Monetary    float64 `json:"monetary"`
	RFMScore    string  `json:"rfm_score"`
	SegmentID   int     `json:"segment_id"`
	SegmentName string  `json:"segment_name"`
}

// ComputeRFM derives RFM features per customer from transactions.
// Recency is measured against asOf. Pure and deterministic: the same
// transactions and asOf always produce the same records, sorted by
// customer ID.
func ComputeRFM(transactions []Transaction, asOf time.Time) []RFMRecord {
	type agg struct {
		last     time.Time
		count    int
		monetary float64
	}
	byCustomer := make(map[int]*agg)

	for _, tx := range transactions {
		a := byCustomer[tx.CustomerID]
		if a == nil {
			a = &agg{}
			byCustomer[tx.CustomerID] = a
		}
		a.count++
		a.monetary += tx.Amount
		if tx.OccurredAt.After(a.last) {
			a.last = tx.OccurredAt
		}
	}

	records := make([]RFMRecord, 0, len(byCustomer))
	for id, a := range byCustomer {
		recency := asOf.Sub(a.last).Hours() / 24
		if recency < 0 {
			recency = 0
		}
		rec := RFMRecord{
			CustomerID:  id,
			RecencyDays: recency,
			Frequency:   float64(a.count),
			Monetary:    a.monetary,
		}
		rec.RFMScore = Score(rec.RecencyDays, rec.Frequency, rec.Monetary)
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CustomerID < records[j].CustomerID
	})
	return records
}

// Score returns the three-digit RFM score string. Each digit is 1-5,
// higher is better.
func Score(recencyDays, frequency, monetary float64) string {
	return fmt.Sprintf("%d%d%d",
		recencyScore(recencyDays),
		frequencyScore(frequency),
		monetaryScore(monetary))
}

func recencyScore(days float64) int {
	switch {
	case days < 30:
		return 5
	case days < 60:
		return 4
	case days < 90:
		return 3
	case days < 180:
		return 2
	default:
		return 1
	}
}

func frequencyScore(frequency float64) int {
	score := int(frequency) / 2
	if score < 1 {
		return 1
	}
	if score > 5 {
		return 5
	}
	return score
}

func monetaryScore(monetary float64) int {
	switch {
	case monetary > 50000:
		return 5
	case monetary > 20000:
		return 4
	case monetary > 10000:
		return 3
	case monetary > 5000:
		return 2
	default:
		return 1
	}
}
