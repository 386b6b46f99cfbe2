// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopsight/shopsight/internal/config"
	"github.com/shopsight/shopsight/internal/forecast"
	"github.com/shopsight/shopsight/internal/recommend"
	"github.com/shopsight/shopsight/internal/registry"
	"github.com/shopsight/shopsight/internal/segment"
	"github.com/shopsight/shopsight/internal/store"
)

type mockRecommendEngine struct {
	result   *recommend.Result
	err      error
	trainErr error
	trainDur time.Duration
	status   recommend.Status
}

func (m *mockRecommendEngine) ForUser(_ context.Context, _ recommend.UserRequest) (*recommend.Result, error) {
	return m.result, m.err
}

func (m *mockRecommendEngine) SimilarTo(_ context.Context, _, _ int) (*recommend.Result, error) {
	return m.result, m.err
}

func (m *mockRecommendEngine) Trending(_ context.Context, _ int) (*recommend.Result, error) {
	return m.result, m.err
}

func (m *mockRecommendEngine) Train(_ context.Context) error {
	if m.trainDur > 0 {
		time.Sleep(m.trainDur)
	}
	return m.trainErr
}

func (m *mockRecommendEngine) Status() recommend.Status { return m.status }

type mockForecastEngine struct {
	series *forecast.Series
	advice []forecast.InventoryAdvice
	err    error
}

func (m *mockForecastEngine) Forecast(_ context.Context, _, _ int) (*forecast.Series, error) {
	return m.series, m.err
}

func (m *mockForecastEngine) InventoryRecommendations(_ context.Context) ([]forecast.InventoryAdvice, error) {
	return m.advice, m.err
}

type mockHealthStore struct {
	pingErr error
	stats   store.Stats
}

func (m *mockHealthStore) Ping(_ context.Context) error { return m.pingErr }

func (m *mockHealthStore) Stats(_ context.Context) (*store.Stats, error) {
	return &m.stats, nil
}

type mockRegistry struct {
	artifact *registry.Artifact
	state    string
}

func (m *mockRegistry) Current(_ registry.Task) (*registry.Artifact, error) {
	if m.artifact == nil {
		return nil, registry.ErrNoArtifact
	}
	return m.artifact, nil
}

func (m *mockRegistry) State(_ registry.Task, _ time.Duration) (string, error) {
	if m.state == "" {
		return registry.StateUntrained, nil
	}
	return m.state, nil
}

type testServer struct {
	recommend *mockRecommendEngine
	forecast  *mockForecastEngine
	store     *mockHealthStore
	registry  *mockRegistry
	router    http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg, err := config.LoadWithPath("")
	if err != nil {
		t.Fatalf("LoadWithPath: %v", err)
	}
	cfg.Security.RateLimitDisabled = true

	segEngine, err := segment.NewEngine(segment.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("segment.NewEngine: %v", err)
	}

	ts := &testServer{
		recommend: &mockRecommendEngine{},
		forecast:  &mockForecastEngine{},
		store:     &mockHealthStore{},
		registry:  &mockRegistry{},
	}
	handler := NewHandler(ts.recommend, segEngine, ts.forecast, ts.store, ts.registry, cfg)
	ts.router = NewRouter(handler)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var resp APIResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func TestUserRecommendations(t *testing.T) {
	ts := newTestServer(t)
	ts.recommend.result = &recommend.Result{
		Recommendations: []recommend.Recommendation{
			{ProductID: 1, Name: "Wireless Earbuds", Score: 0.9},
			{ProductID: 2, Name: "Smart Watch", Score: 0.7},
		},
		ModelVersion: 3,
		GeneratedAt:  time.Now(),
	}

	rec, resp := ts.do(t, http.MethodPost, "/ml/recommendations/user",
		map[string]interface{}{"user_id": 7, "limit": 10})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !resp.Success {
		t.Error("expected success response")
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data type = %T", resp.Data)
	}
	recs, ok := data["recommendations"].([]interface{})
	if !ok || len(recs) != 2 {
		t.Errorf("recommendations = %v, want 2 entries", data["recommendations"])
	}
	if data["model_version"].(float64) != 3 {
		t.Errorf("model_version = %v, want 3", data["model_version"])
	}
}

func TestUserRecommendationsValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing user_id", map[string]interface{}{"limit": 10}},
		{"zero user_id", map[string]interface{}{"user_id": 0}},
		{"limit too high", map[string]interface{}{"user_id": 1, "limit": 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := ts.do(t, http.MethodPost, "/ml/recommendations/user", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
				t.Errorf("error = %+v, want %s", resp.Error, ErrCodeValidationFailed)
			}
		})
	}
}

func TestUserRecommendationsModelUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.recommend.err = recommend.ErrModelUnavailable

	rec, resp := ts.do(t, http.MethodPost, "/ml/recommendations/user",
		map[string]interface{}{"user_id": 7})

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeModelUnavailable {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeModelUnavailable)
	}
}

func TestSimilarProductsNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.recommend.err = fmt.Errorf("%w: product 99", recommend.ErrNotFound)

	rec, resp := ts.do(t, http.MethodPost, "/ml/recommendations/similar",
		map[string]interface{}{"product_id": 99})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeNotFound)
	}
}

func TestTrendingInvalidLimit(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/ml/recommendations/trending?limit=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRecommendTrainConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.recommend.trainErr = recommend.ErrTrainingInProgress

	rec, resp := ts.do(t, http.MethodPost, "/ml/recommendations/train", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeTrainingInProgress {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeTrainingInProgress)
	}
}

func TestRecommendTrainAccepted(t *testing.T) {
	ts := newTestServer(t)
	ts.recommend.trainDur = 500 * time.Millisecond

	rec, resp := ts.do(t, http.MethodPost, "/ml/recommendations/train", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if !resp.Success {
		t.Error("expected success response")
	}
}

func TestSegmentEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.do(t, http.MethodPost, "/ml/segmentation/segment", map[string]interface{}{
		"customers": []map[string]interface{}{
			{"customer_id": 1, "recency_days": 1, "frequency": 20, "monetary": 50000},
			{"customer_id": 2, "recency_days": 200, "frequency": 1, "monetary": 300},
			{"customer_id": 3, "recency_days": 10, "frequency": 8, "monetary": 15000},
		},
		"clusters": 3,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]interface{})
	customers := data["customers"].([]interface{})
	if len(customers) != 3 {
		t.Fatalf("got %d customers, want 3", len(customers))
	}
	first := customers[0].(map[string]interface{})
	if first["segment_name"] == "" {
		t.Error("expected a segment name")
	}
	if first["rfm_score"] == "" {
		t.Error("expected an RFM score")
	}
	if sizes := data["segment_sizes"].(map[string]interface{}); len(sizes) == 0 {
		t.Error("expected segment sizes")
	}
}

func TestSegmentValidation(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodPost, "/ml/segmentation/segment",
		map[string]interface{}{"customers": []map[string]interface{}{}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for empty customers", rec.Code)
	}
}

func TestSegmentDefinitions(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.do(t, http.MethodGet, "/ml/segmentation/segments", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := resp.Data.(map[string]interface{})
	if segments := data["segments"].([]interface{}); len(segments) == 0 {
		t.Error("expected segment definitions")
	}
}

func TestDemandForecast(t *testing.T) {
	ts := newTestServer(t)
	ts.forecast.series = &forecast.Series{
		ProductID:   5,
		HorizonDays: 14,
		Points:      []forecast.Point{{Predicted: 10, Lower: 8, Upper: 12}},
		GeneratedAt: time.Now(),
	}

	rec, resp := ts.do(t, http.MethodPost, "/ml/forecasting/demand",
		map[string]interface{}{"product_id": 5, "horizon_days": 14})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]interface{})
	if data["product_id"].(float64) != 5 {
		t.Errorf("product_id = %v, want 5", data["product_id"])
	}
}

func TestDemandForecastErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"invalid horizon", forecast.ErrInvalidHorizon, http.StatusBadRequest, ErrCodeInvalidHorizon},
		{"insufficient history", forecast.ErrInsufficientHistory, http.StatusUnprocessableEntity, ErrCodeInsufficientData},
		{"unknown product", forecast.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.forecast.err = tt.err

			rec, resp := ts.do(t, http.MethodPost, "/ml/forecasting/demand",
				map[string]interface{}{"product_id": 5, "horizon_days": 14})

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want %s", resp.Error, tt.wantErr)
			}
		})
	}
}

func TestSentimentAnalyze(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.do(t, http.MethodPost, "/ml/sentiment/analyze", map[string]interface{}{
		"reviews": []map[string]interface{}{
			{"review_id": 1, "text": "Great quality, love it"},
			{"review_id": 2, "text": "Terrible delivery, very disappointed"},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]interface{})
	results := data["results"].([]interface{})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	first := results[0].(map[string]interface{})
	if first["label"] != "positive" {
		t.Errorf("first label = %v, want positive", first["label"])
	}
	second := results[1].(map[string]interface{})
	if second["label"] != "negative" {
		t.Errorf("second label = %v, want negative", second["label"])
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.store.stats = store.Stats{Products: 10, Interactions: 100, Orders: 20}

	rec, resp := ts.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}
	data := resp.Data.(map[string]interface{})
	if data["status"] != "ok" {
		t.Errorf("status = %v, want ok", data["status"])
	}

	rec, _ = ts.do(t, http.MethodGet, "/health/live", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}

	rec, _ = ts.do(t, http.MethodGet, "/health/ready", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}
}

func TestHealthReadyDegraded(t *testing.T) {
	ts := newTestServer(t)
	ts.store.pingErr = fmt.Errorf("connection refused")

	rec, _ := ts.do(t, http.MethodGet, "/health/ready", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", rec.Code)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "upstream-id-123")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "upstream-id-123" {
		t.Errorf("X-Request-ID = %q, want upstream value echoed", got)
	}

	// Without an upstream header a new ID is generated.
	req = httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated X-Request-ID")
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodPost, "/ml/recommendations/user",
		map[string]interface{}{"user_id": 1, "bogus": true})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown field", rec.Code)
	}
}
