// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package segment

import (
	"context"
	"testing"
	"time"
)

func newTestSegmentEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestSegmentThreeCustomerScenario(t *testing.T) {
	engine := newTestSegmentEngine(t)

	records := []RFMRecord{
		{CustomerID: 1, RecencyDays: 1, Frequency: 20, Monetary: 50000},
		{CustomerID: 2, RecencyDays: 200, Frequency: 1, Monetary: 300},
		{CustomerID: 3, RecencyDays: 10, Frequency: 8, Monetary: 15000},
	}

	out := engine.Segment(records, 3)
	if len(out) != 3 {
		t.Fatalf("got %d records, want 3", len(out))
	}

	byCustomer := make(map[int]RFMRecord)
	for _, r := range out {
		byCustomer[r.CustomerID] = r
	}

	if got := byCustomer[1].SegmentName; got != LabelChampions {
		t.Errorf("customer 1 segment = %q, want %q", got, LabelChampions)
	}
	if got := byCustomer[2].SegmentName; got != LabelAtRisk && got != LabelLost {
		t.Errorf("customer 2 segment = %q, want %q or %q", got, LabelAtRisk, LabelLost)
	}

	ids := map[int]struct{}{}
	for _, r := range out {
		ids[r.SegmentID] = struct{}{}
	}
	if len(ids) != 3 {
		t.Errorf("expected 3 distinct segment IDs, got %d", len(ids))
	}
}

func TestSegmentDeterministic(t *testing.T) {
	engine := newTestSegmentEngine(t)

	records := []RFMRecord{
		{CustomerID: 1, RecencyDays: 5, Frequency: 15, Monetary: 30000},
		{CustomerID: 2, RecencyDays: 45, Frequency: 6, Monetary: 8000},
		{CustomerID: 3, RecencyDays: 20, Frequency: 1, Monetary: 150},
		{CustomerID: 4, RecencyDays: 120, Frequency: 7, Monetary: 9000},
		{CustomerID: 5, RecencyDays: 250, Frequency: 1, Monetary: 90},
		{CustomerID: 6, RecencyDays: 95, Frequency: 2, Monetary: 1200},
	}

	first := engine.Segment(records, 4)
	second := engine.Segment(records, 4)

	for i := range first {
		if first[i].SegmentID != second[i].SegmentID {
			t.Errorf("customer %d segment ID changed across runs: %d vs %d",
				first[i].CustomerID, first[i].SegmentID, second[i].SegmentID)
		}
		if first[i].SegmentName != second[i].SegmentName {
			t.Errorf("customer %d segment name changed across runs: %q vs %q",
				first[i].CustomerID, first[i].SegmentName, second[i].SegmentName)
		}
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	engine := newTestSegmentEngine(t)
	out := engine.Segment(nil, 6)
	if out == nil || len(out) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", out)
	}
}

func TestSegmentSingleCustomer(t *testing.T) {
	engine := newTestSegmentEngine(t)

	out := engine.Segment([]RFMRecord{
		{CustomerID: 1, RecencyDays: 10, Frequency: 2, Monetary: 500},
	}, 6)

	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	if out[0].SegmentName == "" {
		t.Error("expected a segment name for a single customer")
	}
	if out[0].SegmentID != 0 {
		t.Errorf("single cluster segment ID = %d, want 0", out[0].SegmentID)
	}
}

func TestSegmentDuplicatePointsReduceK(t *testing.T) {
	engine := newTestSegmentEngine(t)

	// Two distinct points, k=6: must reduce to 2 clusters without
	// empty segments.
	records := []RFMRecord{
		{CustomerID: 1, RecencyDays: 10, Frequency: 2, Monetary: 500},
		{CustomerID: 2, RecencyDays: 10, Frequency: 2, Monetary: 500},
		{CustomerID: 3, RecencyDays: 300, Frequency: 1, Monetary: 50},
	}

	out := engine.Segment(records, 6)
	ids := map[int]struct{}{}
	for _, r := range out {
		ids[r.SegmentID] = struct{}{}
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 distinct segment IDs, got %d", len(ids))
	}
	if out[0].SegmentID != out[1].SegmentID {
		t.Error("identical customers must land in the same segment")
	}
}

func TestSegmentFillsRFMScore(t *testing.T) {
	engine := newTestSegmentEngine(t)
	out := engine.Segment([]RFMRecord{
		{CustomerID: 1, RecencyDays: 5, Frequency: 12, Monetary: 60000},
	}, 1)
	if out[0].RFMScore != "555" {
		t.Errorf("RFMScore = %q, want 555", out[0].RFMScore)
	}
}

func TestSegmentIDsRankedByValue(t *testing.T) {
	engine := newTestSegmentEngine(t)

	records := []RFMRecord{
		{CustomerID: 1, RecencyDays: 5, Frequency: 20, Monetary: 60000},
		{CustomerID: 2, RecencyDays: 250, Frequency: 1, Monetary: 100},
	}

	out := engine.Segment(records, 2)
	byCustomer := make(map[int]RFMRecord)
	for _, r := range out {
		byCustomer[r.CustomerID] = r
	}

	if byCustomer[1].SegmentID != 0 {
		t.Errorf("high-value customer segment ID = %d, want 0", byCustomer[1].SegmentID)
	}
	if byCustomer[2].SegmentID != 1 {
		t.Errorf("low-value customer segment ID = %d, want 1", byCustomer[2].SegmentID)
	}
}

type mockTxProvider struct {
	transactions []Transaction
}

func (m *mockTxProvider) GetTransactions(_ context.Context) ([]Transaction, error) {
	return m.transactions, nil
}

func TestTrainPublishesStatus(t *testing.T) {
	now := time.Now()
	provider := &mockTxProvider{transactions: []Transaction{
		{CustomerID: 1, Amount: 5000, OccurredAt: now.AddDate(0, 0, -3)},
		{CustomerID: 1, Amount: 7000, OccurredAt: now.AddDate(0, 0, -10)},
		{CustomerID: 2, Amount: 40, OccurredAt: now.AddDate(0, 0, -300)},
	}}

	engine, err := NewEngine(DefaultConfig(), provider)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if engine.Status().State != "untrained" {
		t.Errorf("initial state = %q, want untrained", engine.Status().State)
	}

	if err := engine.Train(context.Background()); err != nil {
		t.Fatalf("Train: %v", err)
	}

	status := engine.Status()
	if status.State != "ready" {
		t.Errorf("state = %q, want ready", status.State)
	}
	if status.Customers != 2 {
		t.Errorf("customers = %d, want 2", status.Customers)
	}
	if engine.Version() != 1 {
		t.Errorf("version = %d, want 1", engine.Version())
	}
	if len(engine.Latest()) != 2 {
		t.Errorf("Latest() = %d records, want 2", len(engine.Latest()))
	}
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		name      string
		recency   float64
		frequency float64
		monetary  float64
		want      string
	}{
		{"champions", 10, 15, 20000, LabelChampions},
		{"loyal", 40, 6, 3000, LabelLoyal},
		{"new customer", 10, 1, 200, LabelNewCustomers},
		{"at risk", 120, 8, 9000, LabelAtRisk},
		{"lost", 200, 1, 300, LabelLost},
		{"hibernating", 100, 2, 500, LabelHibernating},
		{"regular", 70, 3, 2000, LabelRegular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := labelFor(tt.recency, tt.frequency, tt.monetary); got != tt.want {
				t.Errorf("labelFor(%g, %g, %g) = %q, want %q", tt.recency, tt.frequency, tt.monetary, got, tt.want)
			}
		})
	}
}
