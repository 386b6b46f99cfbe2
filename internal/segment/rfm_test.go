// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package segment

import (
	"testing"
	"time"
)

func TestComputeRFM(t *testing.T) {
	asOf := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	transactions := []Transaction{
		{CustomerID: 1, Amount: 100, OccurredAt: asOf.AddDate(0, 0, -10)},
		{CustomerID: 1, Amount: 250, OccurredAt: asOf.AddDate(0, 0, -40)},
		{CustomerID: 2, Amount: 9000, OccurredAt: asOf.AddDate(0, 0, -200)},
	}

	records := ComputeRFM(transactions, asOf)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	// Sorted by customer ID.
	if records[0].CustomerID != 1 || records[1].CustomerID != 2 {
		t.Errorf("records not sorted by customer ID: %+v", records)
	}

	c1 := records[0]
	if c1.RecencyDays != 10 {
		t.Errorf("customer 1 recency = %g, want 10", c1.RecencyDays)
	}
	if c1.Frequency != 2 {
		t.Errorf("customer 1 frequency = %g, want 2", c1.Frequency)
	}
	if c1.Monetary != 350 {
		t.Errorf("customer 1 monetary = %g, want 350", c1.Monetary)
	}

	c2 := records[1]
	if c2.RecencyDays != 200 {
		t.Errorf("customer 2 recency = %g, want 200", c2.RecencyDays)
	}
}

func TestComputeRFMFutureTransaction(t *testing.T) {
	asOf := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	transactions := []Transaction{
		{CustomerID: 1, Amount: 10, OccurredAt: asOf.AddDate(0, 0, 1)},
	}

	records := ComputeRFM(transactions, asOf)
	if records[0].RecencyDays != 0 {
		t.Errorf("future transaction recency = %g, want clamped to 0", records[0].RecencyDays)
	}
}

func TestComputeRFMEmpty(t *testing.T) {
	records := ComputeRFM(nil, time.Now())
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestScoreDigits(t *testing.T) {
	tests := []struct {
		name      string
		recency   float64
		frequency float64
		monetary  float64
		want      string
	}{
		{"best in class", 5, 12, 60000, "555"},
		{"worst in class", 400, 1, 100, "111"},
		{"recency boundaries", 30, 1, 100, "411"},
		{"recency 60", 60, 1, 100, "311"},
		{"recency 90", 90, 1, 100, "211"},
		{"recency 180", 180, 1, 100, "111"},
		{"frequency halved", 100, 7, 100, "231"},
		{"frequency capped at 5", 100, 40, 100, "251"},
		{"monetary 10k is tier 2", 100, 1, 10000, "212"},
		{"monetary just above 10k", 100, 1, 10001, "213"},
		{"monetary just above 20k", 100, 1, 20001, "214"},
		{"monetary just above 50k", 100, 1, 50001, "215"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.recency, tt.frequency, tt.monetary); got != tt.want {
				t.Errorf("Score(%g, %g, %g) = %q, want %q", tt.recency, tt.frequency, tt.monetary, got, tt.want)
			}
		})
	}
}
